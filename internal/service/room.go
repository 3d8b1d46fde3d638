package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/connectx-game/server/internal/engine"
	"github.com/connectx-game/server/internal/events"
	"github.com/connectx-game/server/internal/models"
	"github.com/connectx-game/server/internal/repository"
)

// RoomService owns room membership: creation, joining and rejoining,
// spectating and teardown. Match play itself is MatchService's job.
type RoomService struct {
	rooms  repository.RoomRepository
	bus    *events.Bus
	locks  *RoomLocks
	logger *logrus.Logger
}

func NewRoomService(rooms repository.RoomRepository, bus *events.Bus, locks *RoomLocks, logger *logrus.Logger) *RoomService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RoomService{rooms: rooms, bus: bus, locks: locks, logger: logger}
}

// CreateRoom builds a fresh room with the creator seated as the first
// (RED) player and an empty waiting board.
func (s *RoomService) CreateRoom(ctx context.Context, identity string, cfg models.BoardConfig, difficulty models.Difficulty, isPublic bool) (*models.Room, error) {
	if identity == "" {
		return nil, ErrUnauthorized
	}
	if !cfg.Valid() || !difficulty.Valid() {
		return nil, ErrInvalidData
	}

	room := &models.Room{
		ID:         uuid.NewString(),
		CreatorID:  identity,
		Config:     cfg,
		Difficulty: difficulty,
		IsPublic:   isPublic,
		Players: []*models.Player{
			{ID: identity, Color: models.ColorRed, IsVisible: true},
		},
		GameState: models.GameState{
			Board:         engine.NewBoard(cfg),
			CurrentPlayer: models.CellPlayerOne,
			Status:        models.StatusWaiting,
		},
		CreatedAt: time.Now(),
	}
	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"room_id": room.ID,
		"creator": identity,
		"public":  isPublic,
	}).Info("room created")
	return room.Clone(), nil
}

// JoinRoom seats identity in the room, or rebinds an existing seat to a
// new connection after a reconnect. The second distinct player takes the
// BLUE seat.
func (s *RoomService) JoinRoom(ctx context.Context, roomID, identity, connID string) (*models.Room, error) {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	if room.Player(identity) != nil {
		// Reconnect: the seat survives, only the session binding moves.
		if room.GameState.Status == models.StatusFinished {
			return nil, ErrMatchFinished
		}
		if err := s.rooms.TrackPresence(ctx, connID, roomID); err != nil {
			return nil, err
		}
		s.logger.WithFields(logrus.Fields{
			"room_id": roomID,
			"player":  identity,
		}).Info("player reconnected")
		s.publishRoomUpdated(room)
		return room.Clone(), nil
	}

	if len(room.Players) >= 2 {
		return nil, ErrRoomFull
	}
	if room.GameState.Status != models.StatusWaiting {
		return nil, ErrMatchInProgress
	}

	room.AddPlayer(&models.Player{ID: identity, Color: models.ColorBlue, IsVisible: true})
	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, err
	}
	if err := s.rooms.TrackPresence(ctx, connID, roomID); err != nil {
		return nil, err
	}

	s.bus.Publish(events.Event{
		Type:     events.PlayerJoined,
		RoomID:   roomID,
		PlayerID: identity,
	})
	s.publishRoomUpdated(room)
	return room.Clone(), nil
}

// LeaveRoom removes identity from whatever room its connection is bound
// to. A departing creator tears the whole room down; the final update
// sent to the survivors shows the room as finished.
func (s *RoomService) LeaveRoom(ctx context.Context, connID, identity string) error {
	roomID, err := s.rooms.PresenceRoom(ctx, connID)
	if err != nil {
		return err
	}
	if roomID == "" {
		return ErrNotInRoom
	}

	unlock := s.locks.Lock(roomID)
	defer unlock()

	if err := s.rooms.UntrackPresence(ctx, connID); err != nil {
		return err
	}
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return nil
	}

	if identity == room.CreatorID {
		if err := s.rooms.Delete(ctx, roomID); err != nil {
			return err
		}
		s.locks.Forget(roomID)

		teardown := room.Clone()
		teardown.GameState.Status = models.StatusFinished
		teardown.TurnStartedAt = nil
		s.bus.Publish(events.Event{
			Type:     events.PlayerLeft,
			RoomID:   roomID,
			PlayerID: identity,
		})
		s.bus.Publish(events.Event{
			Type:   events.RoomUpdated,
			RoomID: roomID,
			Room:   teardown,
		})
		s.logger.WithField("room_id", roomID).Info("room closed by creator")
		return nil
	}

	if room.Player(identity) != nil {
		room.RemovePlayer(identity)
	} else if room.HasSpectator(identity) {
		return s.dropSpectator(ctx, room, identity)
	} else {
		return nil
	}

	if len(room.Players) == 0 {
		if err := s.rooms.Delete(ctx, roomID); err != nil {
			return err
		}
		s.locks.Forget(roomID)
		return nil
	}

	if err := s.rooms.Save(ctx, room); err != nil {
		return err
	}
	s.bus.Publish(events.Event{
		Type:     events.PlayerLeft,
		RoomID:   roomID,
		PlayerID: identity,
	})
	s.publishRoomUpdated(room)
	return nil
}

// JoinAsSpectator adds identity as an observer. Players cannot spectate
// their own match and settled matches accept no new watchers.
func (s *RoomService) JoinAsSpectator(ctx context.Context, roomID, identity, connID string) (*models.Room, error) {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if identity == room.CreatorID || room.Player(identity) != nil {
		return nil, ErrAlreadyPlayer
	}
	if room.GameState.Status == models.StatusFinished {
		return nil, ErrMatchFinished
	}

	room.AddSpectator(identity)
	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, err
	}
	if err := s.rooms.TrackPresence(ctx, connID, roomID); err != nil {
		return nil, err
	}

	s.bus.Publish(events.Event{
		Type:     events.SpectatorJoined,
		RoomID:   roomID,
		PlayerID: identity,
	})
	s.publishRoomUpdated(room)
	return room.Clone(), nil
}

// LeaveAsSpectator removes identity from the spectator list of the room
// bound to connID.
func (s *RoomService) LeaveAsSpectator(ctx context.Context, connID, identity string) error {
	roomID, err := s.rooms.PresenceRoom(ctx, connID)
	if err != nil {
		return err
	}
	if roomID == "" {
		return ErrNotInRoom
	}

	unlock := s.locks.Lock(roomID)
	defer unlock()

	if err := s.rooms.UntrackPresence(ctx, connID); err != nil {
		return err
	}
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil || !room.HasSpectator(identity) {
		return nil
	}
	return s.dropSpectator(ctx, room, identity)
}

func (s *RoomService) dropSpectator(ctx context.Context, room *models.Room, identity string) error {
	room.RemoveSpectator(identity)
	if err := s.rooms.Save(ctx, room); err != nil {
		return err
	}
	s.bus.Publish(events.Event{
		Type:     events.SpectatorLeft,
		RoomID:   room.ID,
		PlayerID: identity,
	})
	s.publishRoomUpdated(room)
	return nil
}

// Disconnect releases a connection's session binding without touching
// the seat, so the player can reconnect and resume. Returns the room the
// connection was bound to, empty if none.
func (s *RoomService) Disconnect(ctx context.Context, connID string) (string, error) {
	roomID, err := s.rooms.PresenceRoom(ctx, connID)
	if err != nil {
		return "", err
	}
	if roomID == "" {
		return "", nil
	}
	if err := s.rooms.UntrackPresence(ctx, connID); err != nil {
		return "", err
	}
	return roomID, nil
}

// GetRoom returns a detached snapshot of the room.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room.Clone(), nil
}

// GetPublicRooms lists rooms flagged public, for the lobby browser.
func (s *RoomService) GetPublicRooms(ctx context.Context) ([]*models.Room, error) {
	return s.rooms.FindAllPublic(ctx)
}

func (s *RoomService) publishRoomUpdated(room *models.Room) {
	snapshot := room.Clone()
	s.bus.Publish(events.Event{
		Type:   events.RoomUpdated,
		RoomID: room.ID,
		Room:   snapshot,
	})
}
