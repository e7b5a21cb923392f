package entrypoint

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/covers"
	"github.com/mrlokans/librarian/internal/database"
	auditrepo "github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/scheduler"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Database: config.Database{
			Driver:   database.DriverSQLite,
			Path:     filepath.Join(dir, "librarian.db"),
			LogLevel: "silent",
		},
		Covers: config.Covers{
			Strategy:  covers.StrategyFile,
			UploadDir: filepath.Join(dir, "covers"),
			Store:     coverStoreLocal,
		},
		CoverSweep: config.CoverSweep{Schedule: "0 3 * * *", Grace: time.Hour},
		Session:    config.Session{Lifetime: time.Hour},
		Logging:    config.Logging{Level: "error", Format: "console"},
	}
}

func TestCSRFKey(t *testing.T) {
	key, err := csrfKey("")
	require.NoError(t, err)
	assert.Nil(t, key)

	key, err = csrfKey("a passphrase")
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestNewFileStore(t *testing.T) {
	t.Run("local", func(t *testing.T) {
		cfg := testConfig(t)
		store, err := newFileStore(t.Context(), cfg)
		require.NoError(t, err)
		assert.IsType(t, &covers.LocalStore{}, store)
		assert.DirExists(t, cfg.Covers.UploadDir)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Covers.Store = "ftp"
		_, err := newFileStore(t.Context(), cfg)
		assert.ErrorContains(t, err, `unknown cover store "ftp"`)
	})
}

func TestNewSessionManager(t *testing.T) {
	cfg := testConfig(t)
	db, err := openDatabase(cfg)
	require.NoError(t, err)
	defer db.Close()

	sessions, err := newSessionManager(cfg, db)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, sessions.Lifetime)

	var count int64
	require.NoError(t, db.DB.Raw("SELECT count(*) FROM sqlite_master WHERE type='table' AND name='sessions'").Scan(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestScheduleJobs(t *testing.T) {
	cfg := testConfig(t)
	db, err := openDatabase(cfg)
	require.NoError(t, err)
	defer db.Close()
	auditService := audit.NewService(auditrepo.NewRepository(db.DB))

	t.Run("sweep disabled schedules only audit cleanup", func(t *testing.T) {
		cfg.CoverSweep.Enabled = false
		cfg.Audit.RetentionDays = 30
		sched := scheduler.New()
		require.NoError(t, scheduleJobs(sched, cfg, nil, nil, auditService))

		sched.Start(t.Context())
		defer sched.Stop()
		assert.Nil(t, sched.NextRun("sweep-covers"))
		assert.NotNil(t, sched.NextRun("cleanup-audit-events"))
	})

	t.Run("sweep enabled", func(t *testing.T) {
		cfg.CoverSweep.Enabled = true
		cfg.Audit.RetentionDays = 0
		sched := scheduler.New()
		require.NoError(t, scheduleJobs(sched, cfg, nil, nil, auditService))

		sched.Start(t.Context())
		defer sched.Stop()
		assert.NotNil(t, sched.NextRun("sweep-covers"))
		assert.Nil(t, sched.NextRun("cleanup-audit-events"))
	})

	t.Run("invalid schedule", func(t *testing.T) {
		cfg.CoverSweep.Enabled = true
		cfg.CoverSweep.Schedule = "whenever"
		err := scheduleJobs(scheduler.New(), cfg, nil, nil, auditService)
		assert.Error(t, err)
	})
}

func TestRunSweep(t *testing.T) {
	cfg := testConfig(t)
	store, err := covers.NewLocalStore(cfg.Covers.UploadDir)
	require.NoError(t, err)
	require.NoError(t, store.Put(t.Context(), "orphan.png", strings.NewReader("png"), 3, "image/png"))

	result, err := RunSweep(cfg, 0, true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, []string{"orphan.png"}, result.Orphans)
	assert.Equal(t, 0, result.Removed)
	assert.FileExists(t, filepath.Join(cfg.Covers.UploadDir, "orphan.png"))

	result, err = RunSweep(cfg, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Removed)
	assert.NoFileExists(t, filepath.Join(cfg.Covers.UploadDir, "orphan.png"))
}
