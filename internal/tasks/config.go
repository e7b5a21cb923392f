package tasks

import (
	"path/filepath"
	"strings"
	"time"
)

// Config holds configuration for the task queue system.
type Config struct {
	// DBPath is the SQLite file holding queued tasks. See DBPathFor.
	DBPath string

	// Workers is the number of concurrent task workers. Default: 1
	Workers int

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 15m
	ReleaseAfter time.Duration

	// CleanupInterval is how often to clean up completed tasks. Default: 1h
	CleanupInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:         1,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: 1 * time.Hour,
	}
}

// DBPathFor places the queue database next to the catalog database:
// ./data/librarian.db becomes ./data/librarian-tasks.db.
func DBPathFor(catalogDBPath string) string {
	dir := filepath.Dir(catalogDBPath)
	base := filepath.Base(catalogDBPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, name+"-tasks"+filepath.Ext(base))
}
