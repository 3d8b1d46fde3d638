package service

import "sync"

// RoomLocks hands out one mutex per room so every mutation of a room,
// whether it arrives from a websocket intent, a turn-clock callback or
// the heartbeat sweep, is serialized against the others.
type RoomLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRoomLocks() *RoomLocks {
	return &RoomLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for roomID, creating it on first use, and
// returns the matching unlock function.
func (l *RoomLocks) Lock(roomID string) func() {
	l.mu.Lock()
	m, ok := l.locks[roomID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[roomID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Forget drops the mutex for a room that no longer exists. A straggler
// that already grabbed the old mutex finishes undisturbed; later callers
// get a fresh one and find no room behind it.
func (l *RoomLocks) Forget(roomID string) {
	l.mu.Lock()
	delete(l.locks, roomID)
	l.mu.Unlock()
}
