package service

import (
	"time"

	"github.com/connectx-game/server/internal/models"
)

// GameContext is the per-recipient view of a room: the same room update
// renders differently for each player and spectator.
type GameContext struct {
	IsMyTurn     bool               `json:"isMyTurn"`
	MyColor      models.PlayerColor `json:"myColor,omitempty"`
	ActiveColor  models.PlayerColor `json:"activeColor,omitempty"`
	OpponentName string             `json:"opponentName,omitempty"`
	Status       models.GameStatus  `json:"status"`
	TimeLeft     *int               `json:"timeLeft,omitempty"`
	IsSpectator  bool               `json:"isSpectator"`
	IsCreator    bool               `json:"isCreator"`
}

// ComputeContext derives the view of room for identity at the given
// instant. TimeLeft is only present while a match is in progress and is
// the whole seconds remaining on the acting player's clock, clamped at
// zero.
func ComputeContext(room *models.Room, identity string, now time.Time) GameContext {
	gc := GameContext{
		Status:    room.GameState.Status,
		IsCreator: identity == room.CreatorID,
	}

	player := room.Player(identity)
	gc.IsSpectator = player == nil

	var activeSeat *models.Player
	if seat := room.CurrentSeat(); seat != nil {
		gc.ActiveColor = seat.Color
		activeSeat = seat
	}

	if player != nil {
		gc.MyColor = player.Color
		gc.IsMyTurn = room.GameState.Status == models.StatusInProgress &&
			activeSeat != nil && activeSeat.ID == player.ID
		if opp := room.Opponent(identity); opp != nil {
			gc.OpponentName = opp.ID
		}
	}

	if room.GameState.Status == models.StatusInProgress && room.TurnStartedAt != nil {
		limit := room.Difficulty.TurnTime()
		remaining := limit - now.Sub(*room.TurnStartedAt)
		if remaining < 0 {
			remaining = 0
		}
		secs := int(remaining / time.Second)
		gc.TimeLeft = &secs
	}

	return gc
}
