package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SessionStore removes expired login sessions.
type SessionStore interface {
	CleanExpiredSessions() (int64, error)
}

// Janitor periodically deletes expired login sessions.
type Janitor struct {
	store    SessionStore
	log      *zap.Logger
	interval time.Duration
}

// NewJanitor creates a Janitor. A non-positive interval falls back to one hour.
func NewJanitor(store SessionStore, log *zap.Logger, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Janitor{store: store, log: log, interval: interval}
}

// Run sweeps once immediately, then on every tick until ctx is canceled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.tick()
	for {
		select {
		case <-ctx.Done():
			j.log.Info("session janitor stopping")
			return
		case <-ticker.C:
			j.tick()
		}
	}
}

func (j *Janitor) tick() {
	n, err := j.store.CleanExpiredSessions()
	if err != nil {
		j.log.Error("CleanExpiredSessions failed", zap.Error(err))
		return
	}
	if n > 0 {
		j.log.Info("expired sessions removed", zap.Int64("count", n))
	}
}
