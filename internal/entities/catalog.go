package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Author struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"index;size:256;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Author) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

type Book struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"index;size:512;not null" json:"title"`
	AuthorID    string    `gorm:"index;size:36;not null" json:"author_id"`
	Author      *Author   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	PublishDate time.Time `gorm:"index" json:"publish_date"`
	PageCount   int       `json:"page_count"`
	Description string    `gorm:"type:text" json:"description,omitempty"`

	// Inline cover. Mutually exclusive with CoverImageName.
	CoverImage     []byte `json:"-"`
	CoverImageType string `gorm:"size:50" json:"cover_image_type,omitempty"`

	// Filename in the cover upload store.
	CoverImageName string `gorm:"index;size:255" json:"cover_image_name,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// HasCover reports whether either cover mode is populated.
func (b *Book) HasCover() bool {
	return len(b.CoverImage) > 0 || b.CoverImageName != ""
}

// HasInlineCover reports whether the cover is stored on the record itself.
func (b *Book) HasInlineCover() bool {
	return len(b.CoverImage) > 0 && b.CoverImageType != ""
}

// ClearCover resets both cover modes.
func (b *Book) ClearCover() {
	b.CoverImage = nil
	b.CoverImageType = ""
	b.CoverImageName = ""
}

// PublishDateInput formats PublishDate for an <input type="date"> value.
func (b *Book) PublishDateInput() string {
	if b.PublishDate.IsZero() {
		return ""
	}
	return b.PublishDate.Format(DateLayout)
}

// DateLayout is the wire format of dates in forms and query strings.
const DateLayout = "2006-01-02"

func (Author) TableName() string {
	return "authors"
}

func (Book) TableName() string {
	return "books"
}
