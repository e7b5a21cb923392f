// Package books provides database operations for the book catalog.
//
// Covers are resolved through a CoverAdapter before the record is written.
// When the write fails, a cover file the adapter stored for it is discarded
// again so the upload store keeps no file nobody references.
//
// # Usage
//
//	repo := books.NewRepository(db.DB, coverAdapter)
//	book, err := repo.Create(ctx, books.Fields{...}, covers.Source{Encoded: payload})
//	list, err := repo.List(ctx, search.BookFilter{Title: search.Some("sea")})
package books

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarian/internal/covers"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/search"
)

// CoverAdapter resolves a submitted cover onto a book.
type CoverAdapter interface {
	Apply(ctx context.Context, book *entities.Book, src covers.Source) (string, error)
	Discard(ctx context.Context, name string)
}

// Fields are the user-editable scalar fields of a book.
type Fields struct {
	Title       string    `json:"title"`
	AuthorID    string    `json:"author"`
	PublishDate time.Time `json:"publishDate"`
	PageCount   int       `json:"pageCount"`
	Description string    `json:"description"`
}

// Validate checks the required fields.
func (f Fields) Validate() error {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required, validation.RuneLength(1, 512)),
		validation.Field(&f.AuthorID, validation.Required),
		validation.Field(&f.PublishDate, validation.Required),
		validation.Field(&f.PageCount, validation.Min(0)),
	)
	return entities.AsValidationError(err)
}

// ApplyTo copies the fields onto book.
func (f Fields) ApplyTo(book *entities.Book) {
	book.Title = f.Title
	book.AuthorID = f.AuthorID
	book.PublishDate = f.PublishDate
	book.PageCount = f.PageCount
	book.Description = f.Description
}

func (f Fields) normalized() Fields {
	f.Title = strings.TrimSpace(f.Title)
	f.AuthorID = strings.TrimSpace(f.AuthorID)
	f.Description = strings.TrimSpace(f.Description)
	return f
}

// Repository handles book persistence.
type Repository struct {
	db     *gorm.DB
	covers CoverAdapter
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB, covers CoverAdapter) *Repository {
	return &Repository{db: db, covers: covers}
}

// List returns books matching every predicate set on filter.
func (r *Repository) List(ctx context.Context, filter search.BookFilter) ([]entities.Book, error) {
	var list []entities.Book
	if err := r.db.WithContext(ctx).Scopes(filter.Scope).Find(&list).Error; err != nil {
		return nil, entities.NewStorageError("list books", err)
	}
	return list, nil
}

// Recent returns the most recently created books.
func (r *Repository) Recent(ctx context.Context, limit int) ([]entities.Book, error) {
	var list []entities.Book
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&list).Error
	if err != nil {
		return nil, entities.NewStorageError("list recent books", err)
	}
	return list, nil
}

// ListByAuthor returns up to limit books written by the author.
func (r *Repository) ListByAuthor(ctx context.Context, authorID string, limit int) ([]entities.Book, error) {
	var list []entities.Book
	err := r.db.WithContext(ctx).Where("author_id = ?", authorID).Limit(limit).Find(&list).Error
	if err != nil {
		return nil, entities.NewStorageError("list author books", err)
	}
	return list, nil
}

// CountByAuthor returns how many books reference the author.
func (r *Repository) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).Where("author_id = ?", authorID).Count(&count).Error
	if err != nil {
		return 0, entities.NewStorageError("count author books", err)
	}
	return count, nil
}

// Get retrieves a book by ID with its author resolved.
func (r *Repository) Get(ctx context.Context, id string) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.WithContext(ctx).Preload("Author").First(&book, "id = ?", id).Error; err != nil {
		return nil, lookupError("get book", id, err)
	}
	return &book, nil
}

// Create validates fields, attaches the cover and stores the book.
func (r *Repository) Create(ctx context.Context, fields Fields, src covers.Source) (*entities.Book, error) {
	fields = fields.normalized()
	if err := r.checkFields(ctx, fields); err != nil {
		return nil, err
	}

	book := &entities.Book{}
	fields.ApplyTo(book)

	written, err := r.covers.Apply(ctx, book, src)
	if err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(book).Error; err != nil {
		r.covers.Discard(ctx, written)
		return nil, entities.NewStorageError("create book", err)
	}
	return book, nil
}

// Update replaces every scalar field. The cover changes only when src is
// non-empty; the file of a replaced cover stays in the store.
func (r *Repository) Update(ctx context.Context, id string, fields Fields, src covers.Source) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		return nil, lookupError("get book", id, err)
	}

	fields = fields.normalized()
	if err := r.checkFields(ctx, fields); err != nil {
		return nil, err
	}
	fields.ApplyTo(&book)

	var written string
	if !src.IsEmpty() {
		var err error
		if written, err = r.covers.Apply(ctx, &book, src); err != nil {
			return nil, err
		}
	}

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(&book).Error; err != nil {
		r.covers.Discard(ctx, written)
		return nil, entities.NewStorageError("update book", err)
	}
	return &book, nil
}

// Delete removes the book record. Its cover file, if any, is left in place.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Book{})
	if result.Error != nil {
		return entities.NewStorageError("delete book", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("book %s: %w", id, entities.ErrNotFound)
	}
	return nil
}

// CoverNames returns every cover filename still referenced by a book.
func (r *Repository) CoverNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&entities.Book{}).
		Where("cover_image_name <> ''").
		Distinct().
		Pluck("cover_image_name", &names).Error
	if err != nil {
		return nil, entities.NewStorageError("list cover names", err)
	}
	return names, nil
}

func (r *Repository) checkFields(ctx context.Context, fields Fields) error {
	if err := fields.Validate(); err != nil {
		return err
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Author{}).Where("id = ?", fields.AuthorID).Count(&count).Error
	if err != nil {
		return entities.NewStorageError("check author", err)
	}
	if count == 0 {
		return entities.NewValidationError("author", "must reference an existing author")
	}
	return nil
}

func lookupError(op, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("book %s: %w", id, entities.ErrNotFound)
	}
	return entities.NewStorageError(op, err)
}
