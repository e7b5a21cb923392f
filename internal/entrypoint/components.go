package entrypoint

import (
	"context"
	"fmt"

	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/covers"
	"github.com/mrlokans/librarian/internal/crypto"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/session"
)

// Store backends selected by COVER_STORE
const (
	coverStoreLocal = "local"
	coverStoreMinIO = "minio"
)

func openDatabase(cfg *config.Config) (*database.Database, error) {
	return database.NewDatabase(database.Options{
		Driver:   cfg.Database.Driver,
		Path:     cfg.Database.Path,
		DSN:      cfg.Database.URL,
		LogLevel: cfg.Database.LogLevel,
	})
}

// newFileStore opens the store cover files are written to. Both cover
// strategies get one: inline books may still reference files written
// while the file strategy was configured.
func newFileStore(ctx context.Context, cfg *config.Config) (covers.FileStore, error) {
	switch cfg.Covers.Store {
	case "", coverStoreLocal:
		return covers.NewLocalStore(cfg.Covers.UploadDir)
	case coverStoreMinIO:
		return covers.NewMinIOStore(ctx, covers.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown cover store %q", cfg.Covers.Store)
	}
}

func newCoverAdapter(cfg *config.Config, store covers.FileStore) (*covers.Adapter, error) {
	return covers.NewAdapter(covers.Config{
		Strategy:       cfg.Covers.Strategy,
		AllowedTypes:   cfg.Covers.AllowedTypes,
		MaxUploadBytes: cfg.Covers.MaxUploadBytes,
	}, store)
}

// newSessionManager keeps sessions in the catalog database when it is
// SQLite, in memory otherwise.
func newSessionManager(cfg *config.Config, db *database.Database) (*session.Manager, error) {
	var store scs.Store
	if cfg.Database.Driver == "" || cfg.Database.Driver == database.DriverSQLite {
		sqlDB, err := db.DB.DB()
		if err != nil {
			return nil, fmt.Errorf("get SQL DB for sessions: %w", err)
		}
		if store, err = session.NewSQLiteStore(sqlDB); err != nil {
			return nil, fmt.Errorf("create session store: %w", err)
		}
	} else {
		store = session.NewMemoryStore()
	}
	return session.NewManager(store, cfg.Session.Lifetime, cfg.Session.SecureCookies), nil
}

// csrfKey returns nil when CSRF protection is not configured.
func csrfKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, nil
	}
	return crypto.DeriveKey(secret, "csrf")
}
