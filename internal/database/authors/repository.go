// Package authors persists Author records.
//
// Deleting an author is refused with entities.ErrConflict while any book
// still references it. The check and the delete run in one transaction.
//
// Usage:
//
//	repo := authors.NewRepository(db.DB)
//	author, err := repo.Create(ctx, "Ursula K. Le Guin")
//	err = repo.Delete(ctx, author.ID) // ErrConflict if books exist
package authors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/search"
)

const maxNameLength = 256

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns authors whose name contains the filter pattern, case-insensitively.
func (r *Repository) List(ctx context.Context, filter search.AuthorFilter) ([]entities.Author, error) {
	var list []entities.Author
	if err := r.db.WithContext(ctx).Scopes(filter.Scope).Find(&list).Error; err != nil {
		return nil, entities.NewStorageError("list authors", err)
	}
	return list, nil
}

// Create stores a new author. A blank name is a ValidationError.
func (r *Repository) Create(ctx context.Context, name string) (*entities.Author, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}

	author := &entities.Author{Name: name}
	if err := r.db.WithContext(ctx).Create(author).Error; err != nil {
		return nil, entities.NewStorageError("create author", err)
	}
	return author, nil
}

// Get retrieves an author by ID.
func (r *Repository) Get(ctx context.Context, id string) (*entities.Author, error) {
	var author entities.Author
	if err := r.db.WithContext(ctx).First(&author, "id = ?", id).Error; err != nil {
		return nil, lookupError("get author", id, err)
	}
	return &author, nil
}

// Rename changes an author's name. The stored name is untouched on any failure.
func (r *Repository) Rename(ctx context.Context, id, name string) (*entities.Author, error) {
	author, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(author).Update("name", name).Error; err != nil {
		return nil, entities.NewStorageError("rename author", err)
	}
	return author, nil
}

// Delete removes an author that no book references.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var author entities.Author
		if err := tx.Select("id").First(&author, "id = ?", id).Error; err != nil {
			return lookupError("get author", id, err)
		}

		var books int64
		if err := tx.Model(&entities.Book{}).Where("author_id = ?", id).Count(&books).Error; err != nil {
			return entities.NewStorageError("count books", err)
		}
		if books > 0 {
			return fmt.Errorf("author %s has %d book(s): %w", id, books, entities.ErrConflict)
		}

		if err := tx.Delete(&author).Error; err != nil {
			return entities.NewStorageError("delete author", err)
		}
		return nil
	})
}

func validateName(name string) error {
	err := validation.Errors{
		"name": validation.Validate(name, validation.Required, validation.RuneLength(1, maxNameLength)),
	}.Filter()
	return entities.AsValidationError(err)
}

func lookupError(op, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("author %s: %w", id, entities.ErrNotFound)
	}
	return entities.NewStorageError(op, err)
}
