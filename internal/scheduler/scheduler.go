// Package scheduler provides the per-match turn clock: at most one armed
// timer per key, reschedulable and cancelable, with panic-safe callbacks.
package scheduler

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TurnClock tracks one logical deadline per key (the room id). Scheduling a
// key that already has a timer replaces it, so a key can never hold two armed
// timers at once.
type TurnClock struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	logger *logrus.Logger
}

// New returns an empty clock. A nil logger falls back to the logrus standard
// logger.
func New(logger *logrus.Logger) *TurnClock {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TurnClock{
		timers: make(map[string]*time.Timer),
		logger: logger,
	}
}

// Schedule cancels any existing timer for the key and arms a new one. When
// the timer fires, the entry is removed before the callback runs, so Has
// reports false from inside the callback onward. A panicking callback is
// logged and does not take the clock down; the slot is cleared either way.
func (c *TurnClock) Schedule(key string, duration time.Duration, callback func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.timers[key]; ok {
		existing.Stop()
		delete(c.timers, key)
	}

	var timer *time.Timer
	timer = time.AfterFunc(duration, func() {
		c.mu.Lock()
		// A stale firing can race a replacement Schedule; only the timer
		// currently registered for the key may run its callback.
		if c.timers[key] != timer {
			c.mu.Unlock()
			return
		}
		delete(c.timers, key)
		c.mu.Unlock()

		defer func() {
			if r := recover(); r != nil {
				c.logger.WithFields(logrus.Fields{
					"key":   key,
					"panic": r,
				}).Error("turn clock callback panicked")
			}
		}()
		callback()
	})
	c.timers[key] = timer
}

// Cancel disarms and removes the timer for the key without firing it. Safe to
// call when no timer is armed, and safe after a firing (both are no-ops).
func (c *TurnClock) Cancel(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timer, ok := c.timers[key]; ok {
		timer.Stop()
		delete(c.timers, key)
	}
}

// Has reports whether a timer is currently armed for the key.
func (c *TurnClock) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.timers[key]
	return ok
}

// Count returns the number of armed timers across all keys.
func (c *TurnClock) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}
