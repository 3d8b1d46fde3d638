package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/connectx-game/server/internal/service"
)

// Heartbeat periodically sweeps live rooms for overdue turns. The
// per-room clock handles the common case; the sweep catches matches
// whose timers were lost, typically after a restart against a shared
// Redis store.
type Heartbeat struct {
	match    *service.MatchService
	interval time.Duration
	logger   *logrus.Logger
}

func NewHeartbeat(match *service.MatchService, interval time.Duration, logger *logrus.Logger) *Heartbeat {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Heartbeat{match: match, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (h *Heartbeat) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.logger.WithField("interval", h.interval).Info("heartbeat sweep started")
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("heartbeat sweep stopped")
			return
		case <-ticker.C:
			h.match.CheckTimeouts(ctx)
		}
	}
}
