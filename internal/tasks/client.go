package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"
)

// Client runs the catalog's background queues (cover sweep, audit cleanup)
// on backlite, in a SQLite database of its own so it works whichever
// driver the catalog uses.
type Client struct {
	client *backlite.Client
	db     *sql.DB
	config Config

	mu      sync.RWMutex
	queues  map[string]bool
	started bool
}

// ErrUnknownQueue is returned when a task is enqueued for a queue that was
// never registered; backlite would store it and never run it.
var ErrUnknownQueue = errors.New("queue not registered")

// NewClient opens cfg.DBPath and installs the backlite schema.
func NewClient(cfg Config) (*Client, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("tasks database path is required")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          &zeroLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create backlite client: %w", err)
	}
	if err := client.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install backlite schema: %w", err)
	}

	return &Client{
		client: client,
		db:     db,
		config: cfg,
		queues: make(map[string]bool),
	}, nil
}

// Register adds queues. Must be called before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range queues {
		c.client.Register(q)
		c.queues[q.Config().Name] = true
	}
}

// Start runs the workers until ctx is cancelled or Stop is called.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	log.Info().Int("workers", c.config.Workers).Str("db", c.config.DBPath).Msg("Task queue started")
	c.client.Start(ctx)
}

// Stop waits for running tasks until ctx expires.
// Returns true if all workers finished in time.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return true
	}
	c.started = false
	c.mu.Unlock()

	success := c.client.Stop(ctx)
	if success {
		log.Info().Msg("Task queue stopped")
	} else {
		log.Warn().Msg("Task queue stopped before running tasks finished")
	}
	return success
}

// Close releases the queue database. Call after Stop.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Add starts an operation to enqueue one or more tasks.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.client.Add(tasks...)
}

// Enqueue stores task for its registered queue and returns the task id.
func (c *Client) Enqueue(task backlite.Task) (string, error) {
	name := task.Config().Name
	c.mu.RLock()
	known := c.queues[name]
	c.mu.RUnlock()
	if !known {
		return "", fmt.Errorf("%w: %s", ErrUnknownQueue, name)
	}

	ids, err := c.Add(task).Save()
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", name, err)
	}
	return ids[0], nil
}

// Pending counts tasks of queue waiting to run or being retried.
func (c *Client) Pending(ctx context.Context, queue string) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, "SELECT count(*) FROM backlite_tasks WHERE queue = ?", queue).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s tasks: %w", queue, err)
	}
	return n, nil
}

// zeroLogger implements backlite.Logger on top of zerolog.
// backlite passes structured params as alternating key/value pairs.
type zeroLogger struct{}

func (l *zeroLogger) Info(message string, params ...any) {
	log.Debug().Fields(params).Str("component", "tasks").Msg(message)
}

func (l *zeroLogger) Error(message string, params ...any) {
	log.Error().Fields(params).Str("component", "tasks").Msg(message)
}
