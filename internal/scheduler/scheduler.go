// Package scheduler runs periodic maintenance jobs for the API.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Thejus-u/charity-forum/internal/middleware"

	"github.com/go-co-op/gocron/v2"
)

// Expirer flips overdue campaigns to expired and reports how many changed.
type Expirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// Manager owns the job scheduler.
type Manager struct {
	scheduler gocron.Scheduler
}

// NewManager creates a stopped scheduler.
func NewManager() (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Manager{scheduler: s}, nil
}

// RegisterExpirySweep runs expirer every interval. A run that overlaps the
// previous one is skipped.
func (m *Manager) RegisterExpirySweep(expirer Expirer, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(ExpirySweep(expirer, interval)),
		gocron.WithName("campaign_expiry_sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to register expiry sweep: %w", err)
	}
	return nil
}

// ExpirySweep returns one sweep run bounded by timeout.
func ExpirySweep(expirer Expirer, timeout time.Duration) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		n, err := expirer.ExpireOverdue(ctx)
		if err != nil {
			middleware.Logger.Error("campaign expiry sweep failed", slog.String("error", err.Error()))
			return
		}
		if n > 0 {
			middleware.Logger.Info("expired overdue campaigns", slog.Int64("count", n))
		}
	}
}

// Start begins running registered jobs.
func (m *Manager) Start() {
	m.scheduler.Start()
	middleware.Logger.Info("Scheduler started", slog.Int("jobs", len(m.scheduler.Jobs())))
}

// Stop waits for running jobs and shuts the scheduler down.
func (m *Manager) Stop() error {
	if err := m.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	middleware.Logger.Info("Scheduler stopped")
	return nil
}
