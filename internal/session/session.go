// Package session keeps per-visitor state between requests.
//
// The catalog has no user accounts, so the only session data is the flash
// message shown on the page a redirect lands on ("Author created",
// "Book deleted", ...).
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
)

// Session data keys
const (
	keyFlashKind    = "flash_kind"
	keyFlashMessage = "flash_message"
)

// Flash kinds
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot message carried across a redirect.
type Flash struct {
	Kind    string
	Message string
}

// Manager wraps scs.SessionManager with application-specific methods.
type Manager struct {
	*scs.SessionManager
}

// NewManager creates a configured session manager backed by store.
func NewManager(store scs.Store, lifetime time.Duration, secureCookies bool) *Manager {
	sm := scs.New()
	sm.Store = store

	sm.Lifetime = lifetime
	sm.IdleTimeout = lifetime / 2

	sm.Cookie.Name = "librarian_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = secureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &Manager{SessionManager: sm}
}

// NewSQLiteStore creates the sessions table if needed and returns a store on it.
// The sqlDB parameter should be the underlying *sql.DB from GORM.
func NewSQLiteStore(sqlDB *sql.DB) (scs.Store, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}
	return sqlite3store.New(sqlDB), nil
}

// NewMemoryStore returns a process-local store, used when the catalog
// database is not SQLite.
func NewMemoryStore() scs.Store {
	return memstore.New()
}

// SetFlash stores a message for the next rendered page.
func (m *Manager) SetFlash(ctx context.Context, kind, message string) {
	m.Put(ctx, keyFlashKind, kind)
	m.Put(ctx, keyFlashMessage, message)
}

// PopFlash returns and clears the pending flash message, if any.
func (m *Manager) PopFlash(ctx context.Context) *Flash {
	message := m.PopString(ctx, keyFlashMessage)
	kind := m.PopString(ctx, keyFlashKind)
	if message == "" {
		return nil
	}
	if kind == "" {
		kind = FlashSuccess
	}
	return &Flash{Kind: kind, Message: message}
}
