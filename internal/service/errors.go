package service

import "errors"

// Domain errors reported to the originating connection only, never broadcast.
var (
	ErrNotYourTurn     = errors.New("not your turn")
	ErrInvalidMove     = errors.New("invalid move")
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrMatchInProgress = errors.New("match already in progress")
	ErrMatchFinished   = errors.New("match already finished")
	ErrAlreadyPlayer   = errors.New("already a player in this room")
	ErrNotInRoom       = errors.New("not in a room")
	ErrUnauthorized    = errors.New("missing identity")
	ErrInvalidData     = errors.New("invalid data")
)
