// Package redisrepo implements the repository contracts on Redis. Rooms and
// history records are stored as JSON values with a TTL, public rooms are
// indexed in a set, and presence lives in a single hash so the heartbeat
// sweep can list every active session in one call.
package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/connectx-game/server/internal/models"
)

// Options configure key namespacing and retention.
type Options struct {
	KeyPrefix  string
	RoomTTL    time.Duration
	SessionTTL time.Duration
	HistoryTTL time.Duration
}

// DefaultOptions mirror the reference deployment: rooms live for an hour of
// inactivity, sessions for a day, replays for thirty days.
func DefaultOptions() Options {
	return Options{
		KeyPrefix:  "connectx:",
		RoomTTL:    time.Hour,
		SessionTTL: 24 * time.Hour,
		HistoryTTL: 30 * 24 * time.Hour,
	}
}

// Store implements RoomRepository, GameHistoryRepository, and UserRepository
// on one Redis client.
type Store struct {
	client *redis.Client
	opts   Options
}

// New wraps an already-connected client.
func New(client *redis.Client, opts Options) *Store {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultOptions().KeyPrefix
	}
	return &Store{client: client, opts: opts}
}

// Connect dials Redis and pings it before returning a client.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

func (s *Store) key(parts string) string {
	return s.opts.KeyPrefix + parts
}

// --- rooms ---

func (s *Store) Save(ctx context.Context, room *models.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", room.ID, err)
	}
	if err := s.client.Set(ctx, s.key("room:"+room.ID), data, s.opts.RoomTTL).Err(); err != nil {
		return fmt.Errorf("save room %s: %w", room.ID, err)
	}
	if room.IsPublic {
		pipe := s.client.Pipeline()
		pipe.SAdd(ctx, s.key("rooms:public"), room.ID)
		pipe.Expire(ctx, s.key("rooms:public"), s.opts.RoomTTL)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("index public room %s: %w", room.ID, err)
		}
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.Room, error) {
	data, err := s.client.Get(ctx, s.key("room:"+id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find room %s: %w", id, err)
	}
	var room models.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", id, err)
	}
	return &room, nil
}

func (s *Store) FindAllPublic(ctx context.Context) ([]*models.Room, error) {
	ids, err := s.client.SMembers(ctx, s.key("rooms:public")).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("list public rooms: %w", err)
	}

	var rooms []*models.Room
	for _, id := range ids {
		room, err := s.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if room == nil {
			// Room expired; drop the stale index entry.
			s.client.SRem(ctx, s.key("rooms:public"), id)
			continue
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.SRem(ctx, s.key("rooms:public"), id).Err(); err != nil {
		return fmt.Errorf("deindex room %s: %w", id, err)
	}

	// Drop every presence entry bound to this room.
	sessions, err := s.client.HGetAll(ctx, s.key("sessions")).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("list sessions for room %s: %w", id, err)
	}
	for connID, roomID := range sessions {
		if roomID == id {
			s.client.HDel(ctx, s.key("sessions"), connID)
		}
	}

	if err := s.client.Del(ctx, s.key("room:"+id)).Err(); err != nil {
		return fmt.Errorf("delete room %s: %w", id, err)
	}
	return nil
}

// --- presence ---

func (s *Store) TrackPresence(ctx context.Context, connID, roomID string) error {
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, s.key("sessions"), connID, roomID)
	pipe.Expire(ctx, s.key("sessions"), s.opts.SessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("track presence %s: %w", connID, err)
	}
	return nil
}

func (s *Store) PresenceRoom(ctx context.Context, connID string) (string, error) {
	roomID, err := s.client.HGet(ctx, s.key("sessions"), connID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("presence lookup %s: %w", connID, err)
	}
	return roomID, nil
}

func (s *Store) UntrackPresence(ctx context.Context, connID string) error {
	if err := s.client.HDel(ctx, s.key("sessions"), connID).Err(); err != nil {
		return fmt.Errorf("untrack presence %s: %w", connID, err)
	}
	return nil
}

func (s *Store) AllPresence(ctx context.Context) (map[string]string, error) {
	sessions, err := s.client.HGetAll(ctx, s.key("sessions")).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("list presence: %w", err)
	}
	return sessions, nil
}

// --- game history ---

func (s *Store) SaveHistory(ctx context.Context, history *models.GameHistory) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal history %s: %w", history.ID, err)
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key("history:"+history.ID), data, s.opts.HistoryTTL)
	pipe.Set(ctx, s.key("history:room:"+history.RoomID), history.ID, s.opts.HistoryTTL)
	for _, player := range history.Players {
		key := s.key("history:player:" + player)
		pipe.RPush(ctx, key, history.ID)
		pipe.Expire(ctx, key, s.opts.HistoryTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save history %s: %w", history.ID, err)
	}
	return nil
}

func (s *Store) FindHistoryByID(ctx context.Context, id string) (*models.GameHistory, error) {
	data, err := s.client.Get(ctx, s.key("history:"+id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find history %s: %w", id, err)
	}
	var history models.GameHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", id, err)
	}
	return &history, nil
}

func (s *Store) FindHistoryByRoomID(ctx context.Context, roomID string) (*models.GameHistory, error) {
	id, err := s.client.Get(ctx, s.key("history:room:"+roomID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find history for room %s: %w", roomID, err)
	}
	return s.FindHistoryByID(ctx, id)
}

func (s *Store) FindHistoryByPlayer(ctx context.Context, username string) ([]*models.GameHistory, error) {
	ids, err := s.client.LRange(ctx, s.key("history:player:"+username), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("find histories for %s: %w", username, err)
	}
	var out []*models.GameHistory
	for _, id := range ids {
		h, err := s.FindHistoryByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if h != nil {
			out = append(out, h)
		}
	}
	return out, nil
}

// --- users ---

func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user %s: %w", user.Username, err)
	}
	// Users never expire; identity survives room and session churn.
	if err := s.client.Set(ctx, s.key("user:"+user.Username), data, 0).Err(); err != nil {
		return fmt.Errorf("save user %s: %w", user.Username, err)
	}
	return nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	data, err := s.client.Get(ctx, s.key("user:"+username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", username, err)
	}
	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", username, err)
	}
	return &user, nil
}
