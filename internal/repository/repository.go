// Package repository defines the persistence contracts the services depend
// on. Implementations must provide atomic save/find semantics per aggregate;
// the services hold the serialization point, so no optimistic-concurrency
// retries are expected of a backend.
package repository

import (
	"context"

	"github.com/connectx-game/server/internal/models"
)

// RoomRepository stores Room aggregates plus the presence table binding live
// connection ids to room ids. A missing aggregate is reported as (nil, nil),
// not an error.
type RoomRepository interface {
	Save(ctx context.Context, room *models.Room) error
	FindByID(ctx context.Context, id string) (*models.Room, error)
	FindAllPublic(ctx context.Context) ([]*models.Room, error)
	// Delete removes the room and every presence entry pointing at it.
	Delete(ctx context.Context, id string) error

	// TrackPresence binds a connection to a room. A connection maps to at
	// most one room; rebinding overwrites.
	TrackPresence(ctx context.Context, connID, roomID string) error
	PresenceRoom(ctx context.Context, connID string) (string, error)
	UntrackPresence(ctx context.Context, connID string) error
	AllPresence(ctx context.Context) (map[string]string, error)
}

// GameHistoryRepository stores the immutable finished-match records.
type GameHistoryRepository interface {
	Save(ctx context.Context, history *models.GameHistory) error
	FindByID(ctx context.Context, id string) (*models.GameHistory, error)
	FindByRoomID(ctx context.Context, roomID string) (*models.GameHistory, error)
	FindByPlayer(ctx context.Context, username string) ([]*models.GameHistory, error)
}

// UserRepository stores the username-is-identity records.
type UserRepository interface {
	Save(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}
