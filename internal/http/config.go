package http

import (
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/session"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Authors  AuthorStore
	Books    BookStore
	Covers   CoverServer
	Auditor  Auditor // optional
	Database *database.Database

	// Sessions carry flash messages across redirects (optional)
	Sessions *session.Manager

	// CSRF protection is enabled when a secret is set
	CSRFSecret    []byte
	SecureCookies bool

	// Reject every write request
	ReadOnly bool

	// Largest accepted cover upload
	MaxUploadBytes int64

	// UI paths
	TemplatesPath string
	StaticPath    string

	// Application info
	Version string
}
