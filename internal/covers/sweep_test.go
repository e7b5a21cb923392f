package covers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRefs struct {
	names []string
	err   error
}

func (r staticRefs) CoverNames(ctx context.Context) ([]string, error) {
	return r.names, r.err
}

func putAged(t *testing.T, store *LocalStore, name string, age time.Duration) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), name, strings.NewReader("img"), 3, "image/png"))
	mtime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(filepath.Join(store.Dir(), name), mtime, mtime))
}

func TestSweeper_Run(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *LocalStore {
		store, err := NewLocalStore(t.TempDir())
		require.NoError(t, err)
		putAged(t, store, "kept.png", 48*time.Hour)
		putAged(t, store, "orphan.png", 48*time.Hour)
		putAged(t, store, "fresh.png", time.Minute)
		return store
	}

	t.Run("removes old unreferenced files only", func(t *testing.T) {
		store := setup(t)
		sweeper := NewSweeper(store, staticRefs{names: []string{"kept.png"}})

		result, err := sweeper.Run(ctx, time.Hour, false)
		require.NoError(t, err)

		assert.Equal(t, 3, result.Scanned)
		assert.Equal(t, []string{"orphan.png"}, result.Orphans)
		assert.Equal(t, 1, result.Removed)
		assert.NoFileExists(t, filepath.Join(store.Dir(), "orphan.png"))
		assert.FileExists(t, filepath.Join(store.Dir(), "kept.png"))
		assert.FileExists(t, filepath.Join(store.Dir(), "fresh.png"))
	})

	t.Run("dry run keeps files", func(t *testing.T) {
		store := setup(t)
		sweeper := NewSweeper(store, staticRefs{names: []string{"kept.png"}})

		result, err := sweeper.Run(ctx, time.Hour, true)
		require.NoError(t, err)

		assert.Equal(t, []string{"orphan.png"}, result.Orphans)
		assert.Zero(t, result.Removed)
		assert.FileExists(t, filepath.Join(store.Dir(), "orphan.png"))
	})

	t.Run("reference lookup failure deletes nothing", func(t *testing.T) {
		store := setup(t)
		sweeper := NewSweeper(store, staticRefs{err: errors.New("db down")})

		_, err := sweeper.Run(ctx, time.Hour, false)
		assert.ErrorContains(t, err, "db down")
		assert.FileExists(t, filepath.Join(store.Dir(), "orphan.png"))
	})
}
