// Package memory provides the in-memory reference implementation of the
// repository contracts: plain maps behind a mutex. Rooms are deep-copied on
// both save and find so callers never share a live reference with the store.
package memory

import (
	"context"
	"sync"

	"github.com/connectx-game/server/internal/models"
)

// RoomStore implements repository.RoomRepository.
type RoomStore struct {
	mu       sync.RWMutex
	rooms    map[string]*models.Room
	presence map[string]string // connID -> roomID
}

// NewRoomStore returns an empty store.
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms:    make(map[string]*models.Room),
		presence: make(map[string]string),
	}
}

func (s *RoomStore) Save(ctx context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room.Clone()
	return nil
}

func (s *RoomStore) FindByID(ctx context.Context, id string) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, nil
	}
	return room.Clone(), nil
}

func (s *RoomStore) FindAllPublic(ctx context.Context) ([]*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Room
	for _, room := range s.rooms {
		if room.IsPublic {
			out = append(out, room.Clone())
		}
	}
	return out, nil
}

func (s *RoomStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	for connID, roomID := range s.presence {
		if roomID == id {
			delete(s.presence, connID)
		}
	}
	return nil
}

func (s *RoomStore) TrackPresence(ctx context.Context, connID, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presence[connID] = roomID
	return nil
}

func (s *RoomStore) PresenceRoom(ctx context.Context, connID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.presence[connID], nil
}

func (s *RoomStore) UntrackPresence(ctx context.Context, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.presence, connID)
	return nil
}

func (s *RoomStore) AllPresence(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.presence))
	for k, v := range s.presence {
		out[k] = v
	}
	return out, nil
}

// HistoryStore implements repository.GameHistoryRepository.
type HistoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.GameHistory
}

// NewHistoryStore returns an empty store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{records: make(map[string]*models.GameHistory)}
}

func (s *HistoryStore) Save(ctx context.Context, history *models.GameHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[history.ID] = history.Clone()
	return nil
}

func (s *HistoryStore) FindByID(ctx context.Context, id string) (*models.GameHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h, ok := s.records[id]; ok {
		return h.Clone(), nil
	}
	return nil, nil
}

func (s *HistoryStore) FindByRoomID(ctx context.Context, roomID string) (*models.GameHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.GameHistory
	for _, h := range s.records {
		if h.RoomID != roomID {
			continue
		}
		if latest == nil || h.FinishedAt.After(latest.FinishedAt) {
			latest = h
		}
	}
	if latest != nil {
		latest = latest.Clone()
	}
	return latest, nil
}

func (s *HistoryStore) FindByPlayer(ctx context.Context, username string) ([]*models.GameHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.GameHistory
	for _, h := range s.records {
		for _, p := range h.Players {
			if p == username {
				out = append(out, h.Clone())
				break
			}
		}
	}
	return out, nil
}

// UserStore implements repository.UserRepository.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

// NewUserStore returns an empty store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*models.User)}
}

func (s *UserStore) Save(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.Username] = user
	return nil
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[username], nil
}
