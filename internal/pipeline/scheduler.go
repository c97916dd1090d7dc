package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Scheduler triggers runs on a fixed interval. A tick that lands while a
// run is in flight or the pipeline is locked is skipped, not queued.
type Scheduler struct {
	orch     *Orchestrator
	interval time.Duration
}

// NewScheduler creates a scheduler; a non-positive interval disables it
func NewScheduler(orch *Orchestrator, interval time.Duration) *Scheduler {
	return &Scheduler{orch: orch, interval: interval}
}

// Start blocks until ctx is done, kicking off a scheduled run per tick
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	fmt.Printf("[Scheduler] running every %v\n", s.interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := s.orch.StartRun("scheduled")
			switch {
			case err == nil:
			case errors.Is(err, ErrRunInProgress):
				fmt.Println("[Scheduler] tick skipped: run in progress")
			case errors.Is(err, ErrAdminLocked):
				fmt.Println("[Scheduler] tick skipped: pipeline locked")
			default:
				fmt.Printf("[Scheduler] failed to start run: %v\n", err)
			}
		}
	}
}
