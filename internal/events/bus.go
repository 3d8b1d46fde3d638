// Package events carries domain events from the services that mutate match
// state to the broadcast layer that fans them out to connections. The Bus is
// an explicit instance owned by the composition root and injected wherever
// events are published or consumed; there is no package-level singleton.
package events

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/connectx-game/server/internal/models"
)

// Type identifies a domain event.
type Type string

const (
	RoomUpdated       Type = "room_updated"
	GameStarted       Type = "game_started"
	GameMove          Type = "game_move"
	GameOver          Type = "game_over"
	PlayerJoined      Type = "player_joined"
	PlayerLeft        Type = "player_left"
	SpectatorJoined   Type = "spectator_joined"
	SpectatorLeft     Type = "spectator_left"
	VisibilityChanged Type = "visibility_changed"
)

// Event is the envelope published on the bus. Only the fields relevant to the
// event's type are set; Room is always a detached snapshot, never the live
// aggregate.
type Event struct {
	Type   Type
	RoomID string

	Room          *models.Room
	GameState     *models.GameState
	Move          *models.Move
	TurnStartedAt *time.Time

	PlayerID  string
	Reason    string
	IsVisible bool
}

// Handler consumes one event. Handlers run synchronously on the publisher's
// goroutine and must not block.
type Handler func(Event)

// Bus is a minimal in-process publish/subscribe fan-out keyed by event type.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	logger   *logrus.Logger
}

// NewBus returns an empty bus. A nil logger falls back to the logrus standard
// logger.
func NewBus(logger *logrus.Logger) *Bus {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Bus{
		handlers: make(map[Type][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for the event type.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// Publish delivers the event to every handler registered for its type. A
// panicking handler is logged and does not stop delivery to the rest.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	handlers := b.handlers[ev.Type]
	b.mu.RUnlock()

	for _, h := range handlers {
		b.invoke(h, ev)
	}
}

func (b *Bus) invoke(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.WithFields(logrus.Fields{
				"event": ev.Type,
				"room":  ev.RoomID,
				"panic": r,
			}).Error("event handler panicked")
		}
	}()
	h(ev)
}
