package handlers

import (
	"time"

	"github.com/connectx-game/server/internal/events"
	"github.com/connectx-game/server/internal/models"
	"github.com/connectx-game/server/internal/service"
)

// roomUpdatePayload is the per-recipient room snapshot: the room data is
// shared, the context is computed for each recipient individually.
type roomUpdatePayload struct {
	Type    string              `json:"type"`
	Room    *models.Room        `json:"room"`
	Context service.GameContext `json:"context"`
}

type gamePayload struct {
	Type          string            `json:"type"`
	RoomID        string            `json:"roomId"`
	GameState     *models.GameState `json:"gameState,omitempty"`
	Move          *models.Move      `json:"move,omitempty"`
	TurnStartedAt *time.Time        `json:"turnStartedAt,omitempty"`
	Reason        string            `json:"reason,omitempty"`
}

type memberPayload struct {
	Type      string `json:"type"`
	RoomID    string `json:"roomId"`
	PlayerID  string `json:"playerId"`
	IsVisible *bool  `json:"isVisible,omitempty"`
}

// SubscribeEvents wires the server's fan-out onto the event bus. Room
// updates are re-rendered per recipient; everything else is shared.
func (s *Server) SubscribeEvents(bus *events.Bus) {
	bus.Subscribe(events.RoomUpdated, s.onRoomUpdated)

	for _, typ := range []events.Type{
		events.GameStarted, events.GameMove, events.GameOver,
	} {
		bus.Subscribe(typ, s.onGameEvent)
	}
	for _, typ := range []events.Type{
		events.PlayerJoined, events.PlayerLeft,
		events.SpectatorJoined, events.SpectatorLeft,
		events.VisibilityChanged,
	} {
		bus.Subscribe(typ, s.onMemberEvent)
	}
}

func (s *Server) onRoomUpdated(e events.Event) {
	if e.Room == nil {
		return
	}
	now := time.Now()
	for _, c := range s.roomClients(e.RoomID) {
		s.send(c, roomUpdatePayload{
			Type:    string(e.Type),
			Room:    e.Room,
			Context: service.ComputeContext(e.Room, c.identity, now),
		})
	}
}

func (s *Server) onGameEvent(e events.Event) {
	payload := gamePayload{
		Type:          string(e.Type),
		RoomID:        e.RoomID,
		GameState:     e.GameState,
		Move:          e.Move,
		TurnStartedAt: e.TurnStartedAt,
		Reason:        e.Reason,
	}
	for _, c := range s.roomClients(e.RoomID) {
		s.send(c, payload)
	}
}

func (s *Server) onMemberEvent(e events.Event) {
	payload := memberPayload{
		Type:     string(e.Type),
		RoomID:   e.RoomID,
		PlayerID: e.PlayerID,
	}
	if e.Type == events.VisibilityChanged {
		v := e.IsVisible
		payload.IsVisible = &v
	}
	for _, c := range s.roomClients(e.RoomID) {
		s.send(c, payload)
	}
}
