package models

import "time"

// Cell is the occupancy state of a single board slot.
type Cell string

const (
	CellEmpty     Cell = "EMPTY"
	CellPlayerOne Cell = "PLAYER_1"
	CellPlayerTwo Cell = "PLAYER_2"
)

// Opponent returns the other player's cell value. Only meaningful for
// PLAYER_1 / PLAYER_2.
func (c Cell) Opponent() Cell {
	if c == CellPlayerOne {
		return CellPlayerTwo
	}
	return CellPlayerOne
}

// Board is a rows x columns grid; row 0 is the top.
type Board [][]Cell

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	out := make(Board, len(b))
	for i, row := range b {
		out[i] = make([]Cell, len(row))
		copy(out[i], row)
	}
	return out
}

// GameStatus is the lifecycle phase of a match.
type GameStatus string

const (
	StatusWaiting    GameStatus = "WAITING"
	StatusInProgress GameStatus = "IN_PROGRESS"
	StatusFinished   GameStatus = "FINISHED"
)

// Result is the outcome of a finished match. Empty means no result yet.
type Result string

const (
	ResultPlayerOne Result = "PLAYER_1"
	ResultPlayerTwo Result = "PLAYER_2"
	ResultDraw      Result = "DRAW"
)

// BoardConfig describes the grid shape and the run length needed to win.
type BoardConfig struct {
	Rows         int `json:"rows"`
	Columns      int `json:"columns"`
	ConnectCount int `json:"connectCount"`
}

// Board shape limits enforced at room creation.
const (
	MinRows    = 4
	MaxRows    = 20
	MinColumns = 4
	MaxColumns = 20
	MinConnect = 3
	MaxConnect = 10
)

// DefaultBoardConfig is the classic 6x7 connect-four grid.
func DefaultBoardConfig() BoardConfig {
	return BoardConfig{Rows: 6, Columns: 7, ConnectCount: 4}
}

// Valid reports whether the config is within limits and solvable
// (connectCount must fit on the board).
func (c BoardConfig) Valid() bool {
	if c.Rows < MinRows || c.Rows > MaxRows {
		return false
	}
	if c.Columns < MinColumns || c.Columns > MaxColumns {
		return false
	}
	if c.ConnectCount < MinConnect || c.ConnectCount > MaxConnect {
		return false
	}
	if c.ConnectCount > c.Rows || c.ConnectCount > c.Columns {
		return false
	}
	return true
}

// Move is a single recorded drop. Immutable once appended to the history.
type Move struct {
	Column    int       `json:"column"`
	Row       int       `json:"row"`
	Player    Cell      `json:"player"`
	Timestamp time.Time `json:"timestamp"`
}

// GameState holds the live board plus the turn and outcome bookkeeping.
type GameState struct {
	Board         Board      `json:"board"`
	CurrentPlayer Cell       `json:"currentPlayer"`
	Status        GameStatus `json:"status"`
	Winner        Result     `json:"winner,omitempty"`
	WinningCells  [][2]int   `json:"winningCells,omitempty"`
	MoveHistory   []Move     `json:"moveHistory"`
}

// Clone returns a deep copy of the state.
func (g GameState) Clone() GameState {
	out := g
	out.Board = g.Board.Clone()
	if g.WinningCells != nil {
		out.WinningCells = make([][2]int, len(g.WinningCells))
		copy(out.WinningCells, g.WinningCells)
	}
	if g.MoveHistory != nil {
		out.MoveHistory = make([]Move, len(g.MoveHistory))
		copy(out.MoveHistory, g.MoveHistory)
	}
	return out
}
