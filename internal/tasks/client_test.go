package tasks

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "tasks.db")

	client, err := NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("creates the queue database", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DBPath = filepath.Join(t.TempDir(), "tasks.db")

		client, err := NewClient(cfg)
		require.NoError(t, err)
		assert.FileExists(t, cfg.DBPath)
		assert.NoError(t, client.Close())
	})

	t.Run("requires a path", func(t *testing.T) {
		_, err := NewClient(DefaultConfig())
		assert.ErrorContains(t, err, "path is required")
	})
}

func TestDBPathFor(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "librarian-tasks.db"), DBPathFor(filepath.Join("data", "librarian.db")))
	assert.Equal(t, "catalog-tasks", DBPathFor("catalog"))
}

func TestClientStartStop(t *testing.T) {
	client := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
	assert.True(t, client.Stop(stopCtx), "second stop is a no-op")
}

type echoTask struct {
	Value string `json:"value"`
}

func (t echoTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "echo",
		MaxAttempts: 1,
		Backoff:     time.Second,
		Timeout:     5 * time.Second,
	}
}

func TestClient_Enqueue(t *testing.T) {
	t.Run("runs the task on its queue", func(t *testing.T) {
		client := newTestClient(t)
		executed := make(chan string, 1)
		client.Register(backlite.NewQueue(func(ctx context.Context, task echoTask) error {
			executed <- task.Value
			return nil
		}))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go client.Start(ctx)

		id, err := client.Enqueue(echoTask{Value: "hello"})
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		select {
		case val := <-executed:
			assert.Equal(t, "hello", val)
		case <-time.After(5 * time.Second):
			t.Fatal("task was not executed within timeout")
		}
	})

	t.Run("pending until workers run", func(t *testing.T) {
		client := newTestClient(t)
		client.Register(backlite.NewQueue(func(ctx context.Context, task echoTask) error { return nil }))

		_, err := client.Enqueue(echoTask{Value: "later"})
		require.NoError(t, err)

		n, err := client.Pending(t.Context(), "echo")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("unregistered queue", func(t *testing.T) {
		client := newTestClient(t)

		_, err := client.Enqueue(echoTask{Value: "lost"})
		assert.ErrorIs(t, err, ErrUnknownQueue)
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Empty(t, cfg.DBPath)
}
