package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarian/internal/covers"
)

// CoverSweeper removes unreferenced cover files.
type CoverSweeper interface {
	Run(ctx context.Context, grace time.Duration, dryRun bool) (covers.SweepResult, error)
}

// SweepRecorder records the outcome of a sweep in the audit trail.
type SweepRecorder interface {
	LogSweep(scanned, removed int, dryRun bool, err error)
}

// SweepCoversTask deletes cover files no book references.
type SweepCoversTask struct {
	Grace  time.Duration `json:"grace"`
	DryRun bool          `json:"dry_run"`
}

// Config returns the queue configuration for cover sweep tasks.
func (t SweepCoversTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "sweep_covers",
		MaxAttempts: 2,
		Backoff:     10 * time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SweepCoversProcessor creates a processor function for SweepCoversTask.
// recorder may be nil.
func SweepCoversProcessor(sweeper CoverSweeper, recorder SweepRecorder) backlite.QueueProcessor[SweepCoversTask] {
	return func(ctx context.Context, task SweepCoversTask) error {
		if sweeper == nil {
			return fmt.Errorf("cover sweeper not configured")
		}

		result, err := sweeper.Run(ctx, task.Grace, task.DryRun)
		if recorder != nil {
			recorder.LogSweep(result.Scanned, result.Removed, task.DryRun, err)
		}
		if err != nil {
			return fmt.Errorf("sweep covers: %w", err)
		}
		return nil
	}
}

// NewSweepCoversQueue creates a backlite queue for cover sweep tasks.
func NewSweepCoversQueue(sweeper CoverSweeper, recorder SweepRecorder) backlite.Queue {
	return backlite.NewQueue(SweepCoversProcessor(sweeper, recorder))
}
