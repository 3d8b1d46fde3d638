package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectx-game/server/internal/models"
)

func contextRoom(status models.GameStatus) *models.Room {
	now := time.Now()
	room := &models.Room{
		ID:         "room-1",
		CreatorID:  "alice",
		Config:     models.DefaultBoardConfig(),
		Difficulty: models.DifficultyMedium,
		Players: []*models.Player{
			{ID: "alice", Color: models.ColorRed, IsVisible: true},
			{ID: "bob", Color: models.ColorBlue, IsVisible: true},
		},
		GameState: models.GameState{
			CurrentPlayer: models.CellPlayerOne,
			Status:        status,
		},
		CreatedAt: now,
	}
	if status == models.StatusInProgress {
		room.TurnStartedAt = &now
	}
	return room
}

func TestComputeContextActingPlayer(t *testing.T) {
	room := contextRoom(models.StatusInProgress)
	gc := ComputeContext(room, "alice", *room.TurnStartedAt)

	assert.True(t, gc.IsMyTurn)
	assert.Equal(t, models.ColorRed, gc.MyColor)
	assert.Equal(t, models.ColorRed, gc.ActiveColor)
	assert.Equal(t, "bob", gc.OpponentName)
	assert.True(t, gc.IsCreator)
	assert.False(t, gc.IsSpectator)
	require.NotNil(t, gc.TimeLeft)
	assert.Equal(t, 30, *gc.TimeLeft)
}

func TestComputeContextWaitingPlayer(t *testing.T) {
	room := contextRoom(models.StatusInProgress)
	gc := ComputeContext(room, "bob", time.Now())

	assert.False(t, gc.IsMyTurn)
	assert.Equal(t, models.ColorBlue, gc.MyColor)
	assert.Equal(t, models.ColorRed, gc.ActiveColor)
	assert.Equal(t, "alice", gc.OpponentName)
	assert.False(t, gc.IsCreator)
}

func TestComputeContextSpectator(t *testing.T) {
	room := contextRoom(models.StatusInProgress)
	room.Spectators = []string{"carol"}
	gc := ComputeContext(room, "carol", time.Now())

	assert.True(t, gc.IsSpectator)
	assert.False(t, gc.IsMyTurn)
	assert.Empty(t, gc.MyColor)
	assert.Equal(t, models.ColorRed, gc.ActiveColor)
	assert.Empty(t, gc.OpponentName)
	assert.NotNil(t, gc.TimeLeft)
}

func TestComputeContextTimeLeftCountsDown(t *testing.T) {
	room := contextRoom(models.StatusInProgress)

	gc := ComputeContext(room, "alice", room.TurnStartedAt.Add(12*time.Second))
	require.NotNil(t, gc.TimeLeft)
	assert.Equal(t, 18, *gc.TimeLeft)

	// Fractions round down, matching the whole-second countdown clients show.
	gc = ComputeContext(room, "alice", room.TurnStartedAt.Add(12*time.Second+700*time.Millisecond))
	require.NotNil(t, gc.TimeLeft)
	assert.Equal(t, 17, *gc.TimeLeft)
}

func TestComputeContextTimeLeftClampsAtZero(t *testing.T) {
	room := contextRoom(models.StatusInProgress)
	gc := ComputeContext(room, "alice", room.TurnStartedAt.Add(5*time.Minute))
	require.NotNil(t, gc.TimeLeft)
	assert.Equal(t, 0, *gc.TimeLeft)
}

func TestComputeContextOutsideMatch(t *testing.T) {
	room := contextRoom(models.StatusWaiting)
	gc := ComputeContext(room, "alice", time.Now())
	assert.Nil(t, gc.TimeLeft)
	assert.False(t, gc.IsMyTurn)
	assert.Equal(t, models.StatusWaiting, gc.Status)

	room = contextRoom(models.StatusFinished)
	gc = ComputeContext(room, "bob", time.Now())
	assert.Nil(t, gc.TimeLeft)
	assert.False(t, gc.IsMyTurn)
}
