package redisrepo

import (
	"context"

	"github.com/connectx-game/server/internal/models"
	"github.com/connectx-game/server/internal/repository"
)

// Rooms returns the store viewed as a RoomRepository.
func (s *Store) Rooms() repository.RoomRepository { return s }

// Histories returns the store viewed as a GameHistoryRepository.
func (s *Store) Histories() repository.GameHistoryRepository { return historyView{s} }

// Users returns the store viewed as a UserRepository.
func (s *Store) Users() repository.UserRepository { return userView{s} }

type historyView struct{ s *Store }

func (v historyView) Save(ctx context.Context, history *models.GameHistory) error {
	return v.s.SaveHistory(ctx, history)
}

func (v historyView) FindByID(ctx context.Context, id string) (*models.GameHistory, error) {
	return v.s.FindHistoryByID(ctx, id)
}

func (v historyView) FindByRoomID(ctx context.Context, roomID string) (*models.GameHistory, error) {
	return v.s.FindHistoryByRoomID(ctx, roomID)
}

func (v historyView) FindByPlayer(ctx context.Context, username string) ([]*models.GameHistory, error) {
	return v.s.FindHistoryByPlayer(ctx, username)
}

type userView struct{ s *Store }

func (v userView) Save(ctx context.Context, user *models.User) error {
	return v.s.SaveUser(ctx, user)
}

func (v userView) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return v.s.FindUserByUsername(ctx, username)
}
