package http

import (
	"context"
	"io"

	"github.com/mrlokans/librarian/internal/covers"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/search"
)

// This file collects the interfaces the controllers depend on.
// The concrete implementations live in internal/database, internal/covers
// and internal/audit; internal/interfaces checks they stay in sync.

// AuthorStore provides author persistence.
type AuthorStore interface {
	List(ctx context.Context, filter search.AuthorFilter) ([]entities.Author, error)
	Create(ctx context.Context, name string) (*entities.Author, error)
	Get(ctx context.Context, id string) (*entities.Author, error)
	Rename(ctx context.Context, id, name string) (*entities.Author, error)
	Delete(ctx context.Context, id string) error
}

// BookStore provides book persistence.
type BookStore interface {
	List(ctx context.Context, filter search.BookFilter) ([]entities.Book, error)
	Recent(ctx context.Context, limit int) ([]entities.Book, error)
	ListByAuthor(ctx context.Context, authorID string, limit int) ([]entities.Book, error)
	CountByAuthor(ctx context.Context, authorID string) (int64, error)
	Get(ctx context.Context, id string) (*entities.Book, error)
	Create(ctx context.Context, fields books.Fields, src covers.Source) (*entities.Book, error)
	Update(ctx context.Context, id string, fields books.Fields, src covers.Source) (*entities.Book, error)
	Delete(ctx context.Context, id string) error
}

// CoverServer reads stored covers back.
type CoverServer interface {
	Strategy() string
	Open(ctx context.Context, book *entities.Book) (io.ReadCloser, string, error)
}

// Auditor records catalog changes and reads them back for activity panels.
type Auditor interface {
	LogCreate(entityType, entityID, name, ipAddr string)
	LogUpdate(entityType, entityID, name, ipAddr string)
	LogDelete(entityType, entityID, name, ipAddr string)
	RecentEvents(limit int) ([]entities.AuditEvent, error)
	History(entityType, entityID string, limit int) ([]entities.AuditEvent, error)
}
