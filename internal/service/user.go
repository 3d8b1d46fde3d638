package service

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/connectx-game/server/internal/models"
	"github.com/connectx-game/server/internal/repository"
)

// UserService registers and looks up players. Usernames are normalized
// before storage so "Alice" and " alice " resolve to the same identity.
type UserService struct {
	users  repository.UserRepository
	logger *logrus.Logger
}

func NewUserService(users repository.UserRepository, logger *logrus.Logger) *UserService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &UserService{users: users, logger: logger}
}

// Register claims a username, returning the existing record unchanged if
// it was already taken. Registration is idempotent on purpose; identity
// here is just a display name, not an account.
func (s *UserService) Register(ctx context.Context, username string) (*models.User, error) {
	name := models.NormalizeUsername(username)
	if n := utf8.RuneCountInString(name); n < 2 || n > 20 {
		return nil, ErrInvalidData
	}

	existing, err := s.users.FindByUsername(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	user := &models.User{Username: name, CreatedAt: time.Now()}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.WithField("username", name).Info("user registered")
	return user, nil
}

// Get looks up a registered user, nil when unknown.
func (s *UserService) Get(ctx context.Context, username string) (*models.User, error) {
	return s.users.FindByUsername(ctx, models.NormalizeUsername(username))
}
