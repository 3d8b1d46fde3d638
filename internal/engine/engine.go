// Package engine implements the pure board rules: grid construction, move
// legality, gravity drop resolution, and win/draw detection. Nothing here
// holds state, so replaying a move history from an empty board reproduces
// the exact final position.
package engine

import "github.com/connectx-game/server/internal/models"

// NewBoard returns an all-empty grid for the given config.
func NewBoard(cfg models.BoardConfig) models.Board {
	board := make(models.Board, cfg.Rows)
	for r := range board {
		board[r] = make([]models.Cell, cfg.Columns)
		for c := range board[r] {
			board[r][c] = models.CellEmpty
		}
	}
	return board
}

// IsValidMove reports whether a drop in the column is legal: the column must
// be in range and its topmost cell still empty.
func IsValidMove(board models.Board, column int, cfg models.BoardConfig) bool {
	if column < 0 || column >= cfg.Columns {
		return false
	}
	return board[0][column] == models.CellEmpty
}

// DropRow returns the lowest empty row in the column, scanning from the
// bottom, or -1 if the column is full.
func DropRow(board models.Board, column int) int {
	for row := len(board) - 1; row >= 0; row-- {
		if board[row][column] == models.CellEmpty {
			return row
		}
	}
	return -1
}

// Apply places the player's piece at the drop row of the column and returns a
// new board. The input board is never mutated; callers keep valid references
// to prior positions (history reconstruction relies on this).
func Apply(board models.Board, column int, player models.Cell) models.Board {
	next := board.Clone()
	if row := DropRow(next, column); row != -1 {
		next[row][column] = player
	}
	return next
}

// CheckWin scans for a completed run of cfg.ConnectCount identical non-empty
// cells. Orientations are checked in a fixed order (horizontal row-major,
// vertical, diagonal down-right, diagonal up-right) so that when several runs
// complete on the same move the reported one is deterministic. A full board
// with no run is a draw. Returns ("", nil) while the game is still open.
func CheckWin(board models.Board, cfg models.BoardConfig) (models.Result, [][2]int) {
	rows, cols, count := cfg.Rows, cfg.Columns, cfg.ConnectCount

	for row := 0; row < rows; row++ {
		for col := 0; col <= cols-count; col++ {
			if winner, cells := checkLine(board, row, col, 0, 1, count); winner != "" {
				return winner, cells
			}
		}
	}

	for row := 0; row <= rows-count; row++ {
		for col := 0; col < cols; col++ {
			if winner, cells := checkLine(board, row, col, 1, 0, count); winner != "" {
				return winner, cells
			}
		}
	}

	for row := 0; row <= rows-count; row++ {
		for col := 0; col <= cols-count; col++ {
			if winner, cells := checkLine(board, row, col, 1, 1, count); winner != "" {
				return winner, cells
			}
		}
	}

	for row := count - 1; row < rows; row++ {
		for col := 0; col <= cols-count; col++ {
			if winner, cells := checkLine(board, row, col, -1, 1, count); winner != "" {
				return winner, cells
			}
		}
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if board[row][col] == models.CellEmpty {
				return "", nil
			}
		}
	}
	return models.ResultDraw, nil
}

// checkLine walks count cells from (startRow, startCol) in the given
// direction and returns the run if all cells match the first non-empty one.
func checkLine(board models.Board, startRow, startCol, rowDir, colDir, count int) (models.Result, [][2]int) {
	first := board[startRow][startCol]
	if first == models.CellEmpty {
		return "", nil
	}

	cells := make([][2]int, 0, count)
	for i := 0; i < count; i++ {
		row := startRow + i*rowDir
		col := startCol + i*colDir
		if board[row][col] != first {
			return "", nil
		}
		cells = append(cells, [2]int{row, col})
	}
	return models.Result(first), cells
}
