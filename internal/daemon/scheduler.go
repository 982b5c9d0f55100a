package daemon

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/nirinit/nirinit/internal/logfields"
)

// Scheduler wraps gocron for the daemon's periodic tasks.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{scheduler: s}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleEvery registers a periodic task and returns its job ID for later
// management.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, task func()) (uuid.UUID, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName(name),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create %s job: %w", name, err)
	}

	return job.ID(), nil
}

// Reschedule replaces an existing job with the same task at a new interval.
func (s *Scheduler) Reschedule(id uuid.UUID, name string, interval time.Duration, task func()) (uuid.UUID, error) {
	if id != uuid.Nil {
		if err := s.scheduler.RemoveJob(id); err != nil {
			slog.Warn("Failed to remove scheduled job", slog.String("job", name), logfields.Error(err))
		}
	}
	return s.ScheduleEvery(name, interval, task)
}
