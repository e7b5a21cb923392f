package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/covers"
	"github.com/mrlokans/librarian/internal/database/authors"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/http"
	"github.com/mrlokans/librarian/internal/scheduler"
	"github.com/mrlokans/librarian/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.AuthorStore = (*authors.Repository)(nil)
var _ http.BookStore = (*books.Repository)(nil)

// CoverNames feeds the orphan sweep
var _ covers.ReferenceLister = (*books.Repository)(nil)

// =============================================================================
// Covers
// =============================================================================

var _ books.CoverAdapter = (*covers.Adapter)(nil)
var _ http.CoverServer = (*covers.Adapter)(nil)

var _ covers.FileStore = (*covers.LocalStore)(nil)
var _ covers.FileStore = (*covers.MinIOStore)(nil)

// =============================================================================
// Audit
// =============================================================================

var _ http.Auditor = (*audit.Service)(nil)
var _ tasks.SweepRecorder = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.CoverSweeper = (*covers.Sweeper)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
