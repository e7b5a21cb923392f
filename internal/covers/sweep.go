package covers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/metrics"
)

// ReferenceLister reports the cover filenames books still point at.
type ReferenceLister interface {
	CoverNames(ctx context.Context) ([]string, error)
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Scanned int
	Orphans []string
	Removed int
}

// Sweeper removes stored cover files that no book references, such as
// files left behind by deleted books or replaced covers.
type Sweeper struct {
	store FileStore
	refs  ReferenceLister
	now   func() time.Time
}

func NewSweeper(store FileStore, refs ReferenceLister) *Sweeper {
	return &Sweeper{store: store, refs: refs, now: time.Now}
}

// Run deletes unreferenced files last modified more than grace ago.
// Files younger than grace may belong to a book still being saved.
// With dryRun the orphans are reported but kept.
func (s *Sweeper) Run(ctx context.Context, grace time.Duration, dryRun bool) (SweepResult, error) {
	var result SweepResult

	files, err := s.store.List(ctx)
	if err != nil {
		return result, fmt.Errorf("list cover files: %w", err)
	}
	result.Scanned = len(files)

	names, err := s.refs.CoverNames(ctx)
	if err != nil {
		return result, fmt.Errorf("list referenced covers: %w", err)
	}
	referenced := make(map[string]struct{}, len(names))
	for _, name := range names {
		referenced[name] = struct{}{}
	}

	cutoff := s.now().Add(-grace)
	var errs []error
	for _, f := range files {
		if _, ok := referenced[f.Name]; ok || f.ModTime.After(cutoff) {
			continue
		}
		result.Orphans = append(result.Orphans, f.Name)
		if dryRun {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.store.Delete(ctx, f.Name); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", f.Name, err))
			continue
		}
		result.Removed++
		metrics.CoversSwept.Inc()
	}

	log.Info().
		Int("scanned", result.Scanned).
		Int("orphans", len(result.Orphans)).
		Int("removed", result.Removed).
		Bool("dry_run", dryRun).
		Msg("Cover sweep finished")

	return result, errors.Join(errs...)
}
