package models

import "time"

// GameHistory is the immutable record of a finished match, written exactly
// once at finalization and kept for replay.
type GameHistory struct {
	ID          string      `json:"id"`
	RoomID      string      `json:"roomId"`
	Players     []string    `json:"players"`
	Winner      Result      `json:"winner"`
	Config      BoardConfig `json:"config"`
	Difficulty  Difficulty  `json:"difficulty"`
	MoveHistory []Move      `json:"moveHistory"`
	CreatedAt   time.Time   `json:"createdAt"`
	FinishedAt  time.Time   `json:"finishedAt"`
}

// Clone returns a deep copy so callers cannot alter the stored record.
func (h *GameHistory) Clone() *GameHistory {
	out := *h
	if h.Players != nil {
		out.Players = make([]string, len(h.Players))
		copy(out.Players, h.Players)
	}
	if h.MoveHistory != nil {
		out.MoveHistory = make([]Move, len(h.MoveHistory))
		copy(out.MoveHistory, h.MoveHistory)
	}
	return &out
}
