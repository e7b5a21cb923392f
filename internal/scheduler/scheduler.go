// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateCronSchedule validates a cron schedule string
func ValidateCronSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// Enqueuer adds tasks to the background queue.
type Enqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// Enqueue returns a job that adds task to the queue on every run.
func Enqueue(q Enqueuer, task backlite.Task) func() {
	return func() {
		id, err := q.Enqueue(task)
		if err != nil {
			log.Error().Err(err).Str("queue", task.Config().Name).Msg("Failed to enqueue scheduled task")
			return
		}
		log.Debug().Str("id", id).Str("queue", task.Config().Name).Msg("Scheduled task enqueued")
	}
}

// Scheduler manages named periodic jobs.
type Scheduler struct {
	cron *cron.Cron

	mu        sync.RWMutex
	entries   map[string]cron.EntryID
	isRunning bool
}

func New() *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]cron.EntryID),
	}
}

// Add registers job under name. Names must be unique.
func (s *Scheduler) Add(name, schedule string, job func()) error {
	if err := ValidateCronSchedule(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s' for %s: %w", schedule, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %s already scheduled", name)
	}

	id, err := s.cron.AddFunc(schedule, func() {
		log.Info().Str("job", name).Msg("Running scheduled job")
		job()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	s.entries[name] = id

	log.Info().Str("job", name).Str("schedule", schedule).Msg("Job scheduled")
	return nil
}

// Start runs the cron loop until Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.cron.Start()
	s.isRunning = true
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.isRunning = false

	log.Info().Msg("Scheduler stopped")
}

// IsRunning returns whether the scheduler is active
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the named job fires next, or nil if it is not scheduled
// or the scheduler is stopped.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.entries[name]
	if !ok || !s.isRunning {
		return nil
	}
	next := s.cron.Entry(id).Next
	return &next
}
