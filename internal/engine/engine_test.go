package engine

import (
	"testing"

	"github.com/connectx-game/server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() models.BoardConfig {
	return models.BoardConfig{Rows: 6, Columns: 7, ConnectCount: 4}
}

func TestNewBoardIsEmpty(t *testing.T) {
	cfg := defaultConfig()
	board := NewBoard(cfg)

	require.Len(t, board, cfg.Rows)
	for _, row := range board {
		require.Len(t, row, cfg.Columns)
		for _, cell := range row {
			assert.Equal(t, models.CellEmpty, cell)
		}
	}
}

func TestIsValidMoveBounds(t *testing.T) {
	cfg := defaultConfig()
	board := NewBoard(cfg)

	assert.False(t, IsValidMove(board, -1, cfg))
	assert.False(t, IsValidMove(board, cfg.Columns, cfg))
	assert.True(t, IsValidMove(board, 0, cfg))
	assert.True(t, IsValidMove(board, cfg.Columns-1, cfg))
}

func TestIsValidMoveFullColumn(t *testing.T) {
	cfg := defaultConfig()
	board := NewBoard(cfg)

	player := models.CellPlayerOne
	for i := 0; i < cfg.Rows; i++ {
		require.True(t, IsValidMove(board, 3, cfg))
		board = Apply(board, 3, player)
		player = player.Opponent()
	}
	assert.False(t, IsValidMove(board, 3, cfg))
	assert.Equal(t, -1, DropRow(board, 3))
}

func TestDropRowStacksFromBottom(t *testing.T) {
	cfg := defaultConfig()
	board := NewBoard(cfg)

	assert.Equal(t, cfg.Rows-1, DropRow(board, 2))
	board = Apply(board, 2, models.CellPlayerOne)
	assert.Equal(t, cfg.Rows-2, DropRow(board, 2))
	board = Apply(board, 2, models.CellPlayerTwo)
	assert.Equal(t, cfg.Rows-3, DropRow(board, 2))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	cfg := defaultConfig()
	original := NewBoard(cfg)

	next := Apply(original, 0, models.CellPlayerOne)

	assert.Equal(t, models.CellEmpty, original[cfg.Rows-1][0])
	assert.Equal(t, models.CellPlayerOne, next[cfg.Rows-1][0])
}

func TestCheckWinVertical(t *testing.T) {
	cfg := defaultConfig()
	board := NewBoard(cfg)

	for i := 0; i < 4; i++ {
		board = Apply(board, 0, models.CellPlayerOne)
	}

	winner, cells := CheckWin(board, cfg)
	assert.Equal(t, models.ResultPlayerOne, winner)
	require.Len(t, cells, 4)
	for _, cell := range cells {
		assert.Equal(t, 0, cell[1])
	}
}

func TestCheckWinHorizontal(t *testing.T) {
	cfg := defaultConfig()
	board := NewBoard(cfg)

	for col := 1; col <= 4; col++ {
		board = Apply(board, col, models.CellPlayerTwo)
	}

	winner, cells := CheckWin(board, cfg)
	assert.Equal(t, models.ResultPlayerTwo, winner)
	assert.Equal(t, [][2]int{{5, 1}, {5, 2}, {5, 3}, {5, 4}}, cells)
}

func TestCheckWinDiagonalDownRight(t *testing.T) {
	cfg := defaultConfig()
	board := NewBoard(cfg)

	// Build a staircase so PLAYER_1 occupies (2,0) (3,1) (4,2) (5,3).
	heights := []int{4, 3, 2, 1} // filler pieces per column before the run piece
	for col, h := range heights {
		for i := 0; i < h-1; i++ {
			board = Apply(board, col, models.CellPlayerTwo)
		}
		board = Apply(board, col, models.CellPlayerOne)
	}

	winner, cells := CheckWin(board, cfg)
	require.Equal(t, models.ResultPlayerOne, winner)
	assert.Equal(t, [][2]int{{2, 0}, {3, 1}, {4, 2}, {5, 3}}, cells)
}

func TestCheckWinDiagonalUpRight(t *testing.T) {
	cfg := defaultConfig()
	board := NewBoard(cfg)

	// PLAYER_1 occupies (5,0) (4,1) (3,2) (2,3).
	heights := []int{1, 2, 3, 4}
	for col, h := range heights {
		for i := 0; i < h-1; i++ {
			board = Apply(board, col, models.CellPlayerTwo)
		}
		board = Apply(board, col, models.CellPlayerOne)
	}

	winner, cells := CheckWin(board, cfg)
	require.Equal(t, models.ResultPlayerOne, winner)
	assert.Equal(t, [][2]int{{5, 0}, {4, 1}, {3, 2}, {2, 3}}, cells)
}

// When a single move completes both a horizontal and a vertical run, the
// horizontal one is reported because orientations are scanned in fixed order.
func TestCheckWinScanOrderPrefersHorizontal(t *testing.T) {
	cfg := defaultConfig()
	board := NewBoard(cfg)

	// Vertical run in column 0, rows 2..5.
	for row := 2; row <= 5; row++ {
		board[row][0] = models.CellPlayerOne
	}
	// Horizontal run on row 3, columns 0..3 (shares (3,0)).
	for col := 0; col <= 3; col++ {
		board[3][col] = models.CellPlayerOne
	}

	winner, cells := CheckWin(board, cfg)
	require.Equal(t, models.ResultPlayerOne, winner)
	assert.Equal(t, [][2]int{{3, 0}, {3, 1}, {3, 2}, {3, 3}}, cells)
}

func TestCheckWinDraw(t *testing.T) {
	cfg := models.BoardConfig{Rows: 4, Columns: 4, ConnectCount: 4}
	board := NewBoard(cfg)

	// Column fill pattern that produces no four-in-a-row on a 4x4 board.
	pattern := [][]models.Cell{
		{models.CellPlayerOne, models.CellPlayerTwo, models.CellPlayerOne, models.CellPlayerTwo},
		{models.CellPlayerOne, models.CellPlayerTwo, models.CellPlayerOne, models.CellPlayerTwo},
		{models.CellPlayerTwo, models.CellPlayerOne, models.CellPlayerTwo, models.CellPlayerOne},
		{models.CellPlayerTwo, models.CellPlayerOne, models.CellPlayerTwo, models.CellPlayerOne},
	}
	for r := range pattern {
		copy(board[r], pattern[r])
	}

	winner, cells := CheckWin(board, cfg)
	assert.Equal(t, models.ResultDraw, winner)
	assert.Nil(t, cells)
}

func TestCheckWinOngoing(t *testing.T) {
	cfg := defaultConfig()
	board := NewBoard(cfg)
	board = Apply(board, 0, models.CellPlayerOne)

	winner, cells := CheckWin(board, cfg)
	assert.Equal(t, models.Result(""), winner)
	assert.Nil(t, cells)
}

// Replaying a recorded move sequence from an empty board must reproduce the
// same final board and winner.
func TestReplayDeterminism(t *testing.T) {
	cfg := defaultConfig()
	columns := []int{0, 1, 0, 1, 0, 1, 0}

	play := func() (models.Board, models.Result) {
		board := NewBoard(cfg)
		player := models.CellPlayerOne
		for _, col := range columns {
			board = Apply(board, col, player)
			player = player.Opponent()
		}
		winner, _ := CheckWin(board, cfg)
		return board, winner
	}

	board1, winner1 := play()
	board2, winner2 := play()

	assert.Equal(t, board1, board2)
	assert.Equal(t, winner1, winner2)
	assert.Equal(t, models.ResultPlayerOne, winner1)
}
