package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mrlokans/librarian/internal/covers"
)

// SweepFunc runs one orphan cover sweep.
type SweepFunc func(grace time.Duration, dryRun bool) (covers.SweepResult, error)

type SweepCoversCommand struct {
	Grace  time.Duration
	DryRun bool

	sweep SweepFunc
	out   io.Writer
}

func NewSweepCoversCommand(sweep SweepFunc) *SweepCoversCommand {
	return &SweepCoversCommand{sweep: sweep, out: os.Stdout}
}

func (cmd *SweepCoversCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sweep-covers", flag.ContinueOnError)

	fs.DurationVar(&cmd.Grace, "grace", time.Hour, "Keep files modified more recently than this")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Report orphaned files without deleting them")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sweep-covers [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete stored cover files that no book references.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s sweep-covers -dry-run\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s sweep-covers -grace 24h\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Grace < 0 {
		return fmt.Errorf("grace must not be negative")
	}
	return nil
}

func (cmd *SweepCoversCommand) Run() error {
	result, err := cmd.sweep(cmd.Grace, cmd.DryRun)
	if err != nil {
		return fmt.Errorf("sweep covers: %w", err)
	}

	fmt.Fprintf(cmd.out, "Files scanned: %d\n", result.Scanned)
	fmt.Fprintf(cmd.out, "Orphans found: %d\n", len(result.Orphans))
	for _, name := range result.Orphans {
		fmt.Fprintf(cmd.out, "  %s\n", name)
	}
	if cmd.DryRun {
		fmt.Fprintf(cmd.out, "Dry run, nothing deleted\n")
	} else {
		fmt.Fprintf(cmd.out, "Files removed: %d\n", result.Removed)
	}
	return nil
}
