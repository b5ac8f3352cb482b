package scheduler

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// Scheduler wraps gocron for the background jobs the API runs in-process:
// payout settlement and notification cleanup.
type Scheduler struct {
	inner gocron.Scheduler
}

// New creates a scheduler. Jobs are registered before Start.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Scheduler{inner: s}, nil
}

// Every registers a job that runs at a fixed interval.
func (s *Scheduler) Every(name string, interval time.Duration, task func()) error {
	_, err := s.inner.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName(name),
	)
	if err != nil {
		return err
	}
	log.Info().Str("job", name).Dur("interval", interval).Msg("Scheduled job registered")
	return nil
}

// Start begins running registered jobs in the background.
func (s *Scheduler) Start() {
	s.inner.Start()
	log.Info().Int("jobs", len(s.inner.Jobs())).Msg("Scheduler started")
}

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() {
	if err := s.inner.Shutdown(); err != nil {
		log.Error().Err(err).Msg("Scheduler shutdown error")
	}
}
