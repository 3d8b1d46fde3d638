package models

import "time"

// PlayerColor is the seat color shown to clients. RED is always the first
// joiner, BLUE the second; rematches keep the original assignment.
type PlayerColor string

const (
	ColorRed  PlayerColor = "RED"
	ColorBlue PlayerColor = "BLUE"
)

// CellFor maps a seat color to the cell value that color plays.
func (c PlayerColor) CellFor() Cell {
	if c == ColorRed {
		return CellPlayerOne
	}
	return CellPlayerTwo
}

// Difficulty selects the per-turn time allowance.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// TurnTime returns the turn allowance for the difficulty. Unknown values fall
// back to MEDIUM.
func (d Difficulty) TurnTime() time.Duration {
	switch d {
	case DifficultyEasy:
		return 60 * time.Second
	case DifficultyHard:
		return 15 * time.Second
	default:
		return 30 * time.Second
	}
}

// Valid reports whether d is one of the known levels.
func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Player is a seat in a room. ID is the stable username, not a connection id,
// so a reconnecting client keeps its seat.
type Player struct {
	ID        string      `json:"id"`
	Color     PlayerColor `json:"color"`
	IsReady   bool        `json:"isReady"`
	IsVisible bool        `json:"isVisible"`
}

// Room is the membership plus match aggregate. Players is an ordered list:
// index 0 is the creator (RED), index 1 the second joiner (BLUE). The slice
// form round-trips through JSON without losing join order, which the color
// assignment depends on.
type Room struct {
	ID            string      `json:"id"`
	CreatorID     string      `json:"creatorId"`
	Config        BoardConfig `json:"config"`
	Difficulty    Difficulty  `json:"difficulty"`
	IsPublic      bool        `json:"isPublic"`
	Players       []*Player   `json:"players"`
	Spectators    []string    `json:"spectators"`
	GameState     GameState   `json:"gameState"`
	CreatedAt     time.Time   `json:"createdAt"`
	TurnStartedAt *time.Time  `json:"turnStartedAt"`
}

// Player returns the seat for the given identity, or nil.
func (r *Room) Player(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Opponent returns the other seat relative to the given identity, or nil.
func (r *Room) Opponent(id string) *Player {
	for _, p := range r.Players {
		if p.ID != id {
			return p
		}
	}
	return nil
}

// AddPlayer appends a seat preserving join order.
func (r *Room) AddPlayer(p *Player) {
	r.Players = append(r.Players, p)
}

// RemovePlayer drops the seat for the given identity, keeping order of the
// remaining seats.
func (r *Room) RemovePlayer(id string) {
	for i, p := range r.Players {
		if p.ID == id {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return
		}
	}
}

// CurrentSeat returns the player whose turn it is, resolved by join order:
// seat 0 plays PLAYER_1, seat 1 plays PLAYER_2.
func (r *Room) CurrentSeat() *Player {
	idx := 0
	if r.GameState.CurrentPlayer == CellPlayerTwo {
		idx = 1
	}
	if idx >= len(r.Players) {
		return nil
	}
	return r.Players[idx]
}

// HasSpectator reports whether the identity is watching the room.
func (r *Room) HasSpectator(id string) bool {
	for _, s := range r.Spectators {
		if s == id {
			return true
		}
	}
	return false
}

// AddSpectator records a watcher; duplicates are ignored.
func (r *Room) AddSpectator(id string) {
	if r.HasSpectator(id) {
		return
	}
	r.Spectators = append(r.Spectators, id)
}

// RemoveSpectator drops a watcher.
func (r *Room) RemoveSpectator(id string) {
	for i, s := range r.Spectators {
		if s == id {
			r.Spectators = append(r.Spectators[:i], r.Spectators[i+1:]...)
			return
		}
	}
}

// Clone returns a deep copy so stored aggregates cannot be mutated through
// a stale reference.
func (r *Room) Clone() *Room {
	out := *r
	out.GameState = r.GameState.Clone()
	out.Players = make([]*Player, len(r.Players))
	for i, p := range r.Players {
		cp := *p
		out.Players[i] = &cp
	}
	if r.Spectators != nil {
		out.Spectators = make([]string, len(r.Spectators))
		copy(out.Spectators, r.Spectators)
	}
	if r.TurnStartedAt != nil {
		ts := *r.TurnStartedAt
		out.TurnStartedAt = &ts
	}
	return &out
}
