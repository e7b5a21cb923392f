// Package search builds store queries from optional listing filters.
//
// Every filter field is an Optional: an absent field adds no constraint,
// present fields are AND-composed. Filters are applied as gorm scopes:
//
//	filter, err := search.ParseBookFilter(c.Request.URL.Query())
//	db.Scopes(filter.Scope).Find(&books)
package search

import (
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/entities"
)

// Query parameter names used by the listing pages.
const (
	ParamName            = "name"
	ParamTitle           = "title"
	ParamPublishedAfter  = "publishedAfter"
	ParamPublishedBefore = "publishedBefore"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// AuthorFilter narrows the author listing.
type AuthorFilter struct {
	Name Optional[string]
}

// BookFilter narrows the book listing.
type BookFilter struct {
	Title           Optional[string]
	PublishedAfter  Optional[time.Time]
	PublishedBefore Optional[time.Time]
}

// ParseAuthorFilter reads the author filter from query parameters.
func ParseAuthorFilter(q url.Values) AuthorFilter {
	return AuthorFilter{Name: textParam(q, ParamName)}
}

// ParseBookFilter reads the book filter from query parameters.
// Malformed dates yield a ValidationError.
func ParseBookFilter(q url.Values) (BookFilter, error) {
	after, err := dateParam(q, ParamPublishedAfter)
	if err != nil {
		return BookFilter{}, err
	}
	before, err := dateParam(q, ParamPublishedBefore)
	if err != nil {
		return BookFilter{}, err
	}
	return BookFilter{
		Title:           textParam(q, ParamTitle),
		PublishedAfter:  after,
		PublishedBefore: before,
	}, nil
}

// Scope applies the author filter to a query.
func (f AuthorFilter) Scope(db *gorm.DB) *gorm.DB {
	if name, ok := f.Name.Get(); ok {
		db = db.Where(`LOWER(name) LIKE ? ESCAPE '\'`, containsPattern(name))
	}
	return db
}

// Scope applies the book filter to a query.
func (f BookFilter) Scope(db *gorm.DB) *gorm.DB {
	if title, ok := f.Title.Get(); ok {
		db = db.Where(`LOWER(title) LIKE ? ESCAPE '\'`, containsPattern(title))
	}
	if after, ok := f.PublishedAfter.Get(); ok {
		db = db.Where("publish_date >= ?", after)
	}
	if before, ok := f.PublishedBefore.Get(); ok {
		db = db.Where("publish_date <= ?", before)
	}
	return db
}

// IsEmpty reports whether no predicate is set.
func (f BookFilter) IsEmpty() bool {
	return !f.Title.IsSet() && !f.PublishedAfter.IsSet() && !f.PublishedBefore.IsSet()
}

// ParseDate parses a form or query date in entities.DateLayout as UTC midnight.
func ParseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(entities.DateLayout, strings.TrimSpace(raw), time.UTC)
}

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func textParam(q url.Values, key string) Optional[string] {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return None[string]()
	}
	return Some(v)
}

func dateParam(q url.Values, key string) (Optional[time.Time], error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return None[time.Time](), nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		return None[time.Time](), entities.NewValidationError(key, "must be a date in YYYY-MM-DD format")
	}
	return Some(t), nil
}
