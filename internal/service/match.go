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
	"github.com/connectx-game/server/internal/scheduler"
)

// Finalization reasons carried on the match-over event.
const (
	ReasonWin          = "WIN"
	ReasonDraw         = "DRAW"
	ReasonTurnTimeout  = "TURN_TIMEOUT"
	ReasonOpponentLeft = "OPPONENT_LEFT"
)

// HistoryArchiver persists finished matches to durable storage. It is
// optional; a nil archiver disables archival without affecting play.
type HistoryArchiver interface {
	ArchiveHistory(ctx context.Context, h *models.GameHistory) error
}

// MatchService drives the lifecycle of a match inside a room: readiness,
// moves, the turn clock, forfeits and finalization. All mutations of a
// room go through the per-room lock.
type MatchService struct {
	rooms   repository.RoomRepository
	history repository.GameHistoryRepository
	clock   *scheduler.TurnClock
	bus     *events.Bus
	locks   *RoomLocks
	logger  *logrus.Logger

	// Archive, when non-nil, receives every finished match asynchronously.
	Archive HistoryArchiver

	// TurnLimit maps a difficulty to the per-turn time allowance.
	// Overridable so tests can run the clock at millisecond scale.
	TurnLimit func(models.Difficulty) time.Duration
}

func NewMatchService(
	rooms repository.RoomRepository,
	history repository.GameHistoryRepository,
	clock *scheduler.TurnClock,
	bus *events.Bus,
	locks *RoomLocks,
	logger *logrus.Logger,
) *MatchService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &MatchService{
		rooms:     rooms,
		history:   history,
		clock:     clock,
		bus:       bus,
		locks:     locks,
		logger:    logger,
		TurnLimit: models.Difficulty.TurnTime,
	}
}

// SetReady marks identity as ready. When both seats are ready the match
// starts: the first seat plays first and its clock is armed. Calling it
// on a finished room first resets the board, so the same call doubles as
// the rematch acceptance.
func (s *MatchService) SetReady(ctx context.Context, roomID, identity string) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrRoomNotFound
	}

	if room.GameState.Status == models.StatusFinished {
		s.resetForRematch(room)
	}

	player := room.Player(identity)
	if player == nil {
		return ErrNotInRoom
	}
	player.IsReady = true

	started := false
	if room.GameState.Status == models.StatusWaiting && len(room.Players) == 2 {
		allReady := true
		for _, p := range room.Players {
			if !p.IsReady {
				allReady = false
			}
		}
		if allReady {
			room.GameState.Status = models.StatusInProgress
			now := time.Now()
			room.TurnStartedAt = &now
			started = true
		}
	}

	if err := s.rooms.Save(ctx, room); err != nil {
		return err
	}

	if started {
		s.armTurnClock(room.ID, s.TurnLimit(room.Difficulty))
		gs := room.GameState.Clone()
		s.bus.Publish(events.Event{
			Type:          events.GameStarted,
			RoomID:        room.ID,
			GameState:     &gs,
			TurnStartedAt: room.TurnStartedAt,
		})
		s.logger.WithFields(logrus.Fields{
			"room_id":    room.ID,
			"difficulty": room.Difficulty,
		}).Info("match started")
	}
	s.publishRoomUpdated(room)
	return nil
}

// RequestRematch is the post-match ready toggle; the first caller resets
// the board, and the match restarts once both players have asked.
func (s *MatchService) RequestRematch(ctx context.Context, roomID, identity string) error {
	return s.SetReady(ctx, roomID, identity)
}

// MakeMove drops a disc for identity in the given column. The acting
// player's clock is cancelled up front; a rejected move re-arms it with
// whatever time was left, a legal move hands a full allowance to the
// opponent, and a finishing move stops it for good.
func (s *MatchService) MakeMove(ctx context.Context, roomID, identity string, column int) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	// Cancel before anything else so a pending expiry cannot fire once
	// this move is in flight. Harmless for rooms with no armed clock.
	s.clock.Cancel(roomID)

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrRoomNotFound
	}
	switch room.GameState.Status {
	case models.StatusFinished:
		return ErrMatchFinished
	case models.StatusWaiting:
		return ErrInvalidMove
	}

	limit := s.TurnLimit(room.Difficulty)

	seat := room.CurrentSeat()
	if seat == nil || seat.ID != identity {
		s.rearmRemaining(room, limit)
		return ErrNotYourTurn
	}
	if !engine.IsValidMove(room.GameState.Board, column, room.Config) {
		s.rearmRemaining(room, limit)
		return ErrInvalidMove
	}

	mover := seat.Color.CellFor()
	row := engine.DropRow(room.GameState.Board, column)
	room.GameState.Board = engine.Apply(room.GameState.Board, column, mover)
	move := models.Move{
		Column:    column,
		Row:       row,
		Player:    mover,
		Timestamp: time.Now(),
	}
	room.GameState.MoveHistory = append(room.GameState.MoveHistory, move)

	winner, cells := engine.CheckWin(room.GameState.Board, room.Config)
	if winner != "" {
		reason := ReasonWin
		if winner == models.ResultDraw {
			reason = ReasonDraw
		}
		s.finish(ctx, room, winner, cells, reason)
	} else {
		room.GameState.CurrentPlayer = mover.Opponent()
		now := time.Now()
		room.TurnStartedAt = &now
		s.armTurnClock(room.ID, limit)
	}

	if err := s.rooms.Save(ctx, room); err != nil {
		return err
	}

	gs := room.GameState.Clone()
	s.bus.Publish(events.Event{
		Type:          events.GameMove,
		RoomID:        room.ID,
		GameState:     &gs,
		Move:          &move,
		TurnStartedAt: room.TurnStartedAt,
	})
	s.publishRoomUpdated(room)
	return nil
}

// HandleForfeit ends an in-progress match in favor of identity's
// opponent. Safe to call for rooms that are missing or already settled.
func (s *MatchService) HandleForfeit(ctx context.Context, roomID, identity, reason string) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil || room.GameState.Status != models.StatusInProgress {
		return nil
	}

	opp := room.Opponent(identity)
	if opp == nil {
		return nil
	}

	s.clock.Cancel(roomID)
	s.finish(ctx, room, models.Result(opp.Color.CellFor()), nil, reason)
	if err := s.rooms.Save(ctx, room); err != nil {
		return err
	}
	s.publishRoomUpdated(room)
	return nil
}

// UpdateVisibility flips identity's presence flag shown to the rest of
// the room, typically when a browser tab is hidden or restored.
func (s *MatchService) UpdateVisibility(ctx context.Context, roomID, identity string, visible bool) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrRoomNotFound
	}
	player := room.Player(identity)
	if player == nil {
		return ErrNotInRoom
	}
	player.IsVisible = visible

	if err := s.rooms.Save(ctx, room); err != nil {
		return err
	}
	s.bus.Publish(events.Event{
		Type:      events.VisibilityChanged,
		RoomID:    room.ID,
		PlayerID:  identity,
		IsVisible: visible,
	})
	s.publishRoomUpdated(room)
	return nil
}

// CheckTimeouts sweeps every room with a live session and settles any
// match whose acting player has overrun the allowance. It backstops the
// per-room clock, which does not survive a process restart.
func (s *MatchService) CheckTimeouts(ctx context.Context) {
	sessions, err := s.rooms.AllPresence(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("timeout sweep: listing sessions failed")
		return
	}
	seen := make(map[string]bool)
	for _, roomID := range sessions {
		if seen[roomID] {
			continue
		}
		seen[roomID] = true
		s.expireIfOverdue(ctx, roomID)
	}
}

// expireIfOverdue is both the turn-clock callback and the sweep body. A
// timer can fire and then lose the race for the room lock to a legal
// move, so holding the lock it re-verifies that the current turn really
// is overdue before settling; a stale callback finds a fresh
// turnStartedAt and backs off.
func (s *MatchService) expireIfOverdue(ctx context.Context, roomID string) {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		s.logger.WithError(err).WithField("room_id", roomID).Warn("turn expiry: fetch failed")
		return
	}
	if room == nil || room.GameState.Status != models.StatusInProgress || room.TurnStartedAt == nil {
		return
	}
	if time.Since(*room.TurnStartedAt) < s.TurnLimit(room.Difficulty) {
		return
	}

	s.clock.Cancel(roomID)
	s.settleTimeout(ctx, room)
}

func (s *MatchService) settleTimeout(ctx context.Context, room *models.Room) {
	winner := models.Result(room.GameState.CurrentPlayer.Opponent())
	s.finish(ctx, room, winner, nil, ReasonTurnTimeout)
	if err := s.rooms.Save(ctx, room); err != nil {
		s.logger.WithError(err).WithField("room_id", room.ID).Error("timeout: save failed")
		return
	}
	s.publishRoomUpdated(room)
}

// finish settles the match exactly once. Callers hold the room lock and
// save afterwards.
func (s *MatchService) finish(ctx context.Context, room *models.Room, winner models.Result, cells [][2]int, reason string) {
	if room.GameState.Status == models.StatusFinished {
		return
	}
	room.GameState.Status = models.StatusFinished
	room.GameState.Winner = winner
	room.GameState.WinningCells = cells
	room.TurnStartedAt = nil
	s.clock.Cancel(room.ID)

	players := make([]string, 0, len(room.Players))
	for _, p := range room.Players {
		players = append(players, p.ID)
	}
	moves := make([]models.Move, len(room.GameState.MoveHistory))
	copy(moves, room.GameState.MoveHistory)

	record := &models.GameHistory{
		ID:          uuid.NewString(),
		RoomID:      room.ID,
		Players:     players,
		Winner:      winner,
		Config:      room.Config,
		Difficulty:  room.Difficulty,
		MoveHistory: moves,
		CreatedAt:   room.CreatedAt,
		FinishedAt:  time.Now(),
	}
	if err := s.history.Save(ctx, record); err != nil {
		s.logger.WithError(err).WithField("room_id", room.ID).Error("saving history failed")
	}
	if s.Archive != nil {
		go func() {
			actx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.Archive.ArchiveHistory(actx, record); err != nil {
				s.logger.WithError(err).WithField("history_id", record.ID).Warn("archiving history failed")
			}
		}()
	}

	gs := room.GameState.Clone()
	s.bus.Publish(events.Event{
		Type:      events.GameOver,
		RoomID:    room.ID,
		GameState: &gs,
		Reason:    reason,
	})
	s.logger.WithFields(logrus.Fields{
		"room_id": room.ID,
		"winner":  winner,
		"reason":  reason,
	}).Info("match finished")
}

func (s *MatchService) resetForRematch(room *models.Room) {
	room.GameState = models.GameState{
		Board:         engine.NewBoard(room.Config),
		CurrentPlayer: models.CellPlayerOne,
		Status:        models.StatusWaiting,
	}
	room.TurnStartedAt = nil
	for _, p := range room.Players {
		p.IsReady = false
	}
}

func (s *MatchService) armTurnClock(roomID string, d time.Duration) {
	s.clock.Schedule(roomID, d, func() { s.expireIfOverdue(context.Background(), roomID) })
}

func (s *MatchService) rearmRemaining(room *models.Room, limit time.Duration) {
	remaining := limit
	if room.TurnStartedAt != nil {
		remaining = limit - time.Since(*room.TurnStartedAt)
		if remaining < 0 {
			remaining = 0
		}
	}
	s.armTurnClock(room.ID, remaining)
}

func (s *MatchService) publishRoomUpdated(room *models.Room) {
	snapshot := room.Clone()
	s.bus.Publish(events.Event{
		Type:   events.RoomUpdated,
		RoomID: room.ID,
		Room:   snapshot,
	})
}
