// Package cleanup runs the background janitor sweeping expired wizard
// and API sessions.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/ric-center/planner/internal/session"
	"github.com/ric-center/planner/internal/wizard"
)

// Janitor periodically drops expired state.
type Janitor struct {
	wizards  *wizard.Registry
	sessions session.Store
	interval time.Duration
}

// NewJanitor creates a janitor.
func NewJanitor(wizards *wizard.Registry, sessions session.Store, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Janitor{wizards: wizards, sessions: sessions, interval: interval}
}

// Start begins the sweep loop in a goroutine.
func (j *Janitor) Start(ctx context.Context) {
	go j.run(ctx)
}

func (j *Janitor) run(ctx context.Context) {
	slog.Info("janitor started", "interval", j.interval)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Run immediately on start
	j.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("janitor stopped")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	wizards := j.wizards.Sweep(time.Now())

	sessions, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		slog.Error("failed to sweep sessions", "error", err)
	}

	if wizards > 0 || sessions > 0 {
		slog.Info("swept expired state", "wizards", wizards, "sessions", sessions)
	}
}
