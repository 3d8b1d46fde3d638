package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/connectx-game/server/internal/models"
)

// DB wraps the pgx pool used for durable match archival. Live rooms
// never touch Postgres; only finished matches land here.
type DB struct {
	Pool   *pgxpool.Pool
	logger *logrus.Logger
}

// Connect opens a pool against url and verifies it with a ping.
func Connect(ctx context.Context, url string, logger *logrus.Logger) (*DB, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parsing pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("connected to postgres")
	return &DB{Pool: pool, logger: logger}, nil
}

func (d *DB) Close() {
	d.Pool.Close()
}

// EnsureSchema creates the archive table when it is missing.
func (d *DB) EnsureSchema(ctx context.Context) error {
	q := `
		CREATE TABLE IF NOT EXISTS game_histories (
			id           UUID PRIMARY KEY,
			room_id      UUID NOT NULL,
			players      TEXT[] NOT NULL,
			winner       TEXT NOT NULL,
			difficulty   TEXT NOT NULL,
			board_config JSONB NOT NULL,
			moves        JSONB NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			finished_at  TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS game_histories_room_idx ON game_histories (room_id);
	`
	if _, err := d.Pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}

// ArchiveHistory writes a finished match. Replays of the same record
// are silently ignored so finalization retries stay idempotent.
func (d *DB) ArchiveHistory(ctx context.Context, h *models.GameHistory) error {
	cfg, err := json.Marshal(h.Config)
	if err != nil {
		return fmt.Errorf("marshaling board config: %w", err)
	}
	moves, err := json.Marshal(h.MoveHistory)
	if err != nil {
		return fmt.Errorf("marshaling moves: %w", err)
	}

	q := `
		INSERT INTO game_histories
			(id, room_id, players, winner, difficulty, board_config, moves, created_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = d.Pool.Exec(ctx, q,
		h.ID, h.RoomID, h.Players, string(h.Winner), string(h.Difficulty),
		cfg, moves, h.CreatedAt, h.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("archiving history %s: %w", h.ID, err)
	}
	return nil
}
