package http

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mrlokans/librarian/internal/covers"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/search"
	"github.com/mrlokans/librarian/internal/session"
)

// ErrorResponse is the JSON body of non-HTML errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// pages holds what every rendered page needs besides its own data.
type pages struct {
	sessions      *session.Manager
	readOnly      bool
	coverStrategy string
}

// render adds the shared layout data and renders the named template.
func (p *pages) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["CSRFField"] = csrf.TemplateField(c.Request)
	data["ReadOnly"] = p.readOnly
	data["CoverStrategy"] = p.coverStrategy
	if p.sessions != nil {
		if flash := p.sessions.PopFlash(c.Request.Context()); flash != nil {
			data["Flash"] = flash
		}
	}
	c.HTML(status, name, data)
}

// flash queues a message for the page the client is redirected to.
func (p *pages) flash(c *gin.Context, kind, message string) {
	if p.sessions == nil {
		return
	}
	p.sessions.SetFlash(c.Request.Context(), kind, message)
}

// redirect sends a See Other so browsers follow form posts with a GET.
func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

// fieldErrors flattens a ValidationError into sorted "field: message" lines.
func fieldErrors(err error) []string {
	var verr *entities.ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	lines := make([]string, 0, len(verr.Fields))
	for field, ferr := range verr.Fields {
		lines = append(lines, field+": "+ferr.Error())
	}
	sort.Strings(lines)
	return lines
}

// bookForm reads the book fields of a submitted form. Values that cannot be
// parsed are reported as a ValidationError; the fields that did parse are
// returned regardless so the form can be shown again.
func bookForm(c *gin.Context) (books.Fields, error) {
	fields := books.Fields{
		Title:       c.PostForm("title"),
		AuthorID:    c.PostForm("author"),
		Description: c.PostForm("description"),
	}
	errs := validation.Errors{}

	if raw := strings.TrimSpace(c.PostForm("publishDate")); raw != "" {
		date, err := search.ParseDate(raw)
		if err != nil {
			errs["publishDate"] = errors.New("must be a date formatted YYYY-MM-DD")
		} else {
			fields.PublishDate = date
		}
	}

	raw := strings.TrimSpace(c.PostForm("pageCount"))
	if raw == "" {
		errs["pageCount"] = errors.New("cannot be blank")
	} else if n, err := strconv.Atoi(raw); err != nil {
		errs["pageCount"] = errors.New("must be a whole number")
	} else {
		fields.PageCount = n
	}

	if len(errs) > 0 {
		return fields, &entities.ValidationError{Fields: errs}
	}
	return fields, nil
}

// coverForm reads the submitted cover: the encoded "cover" field for inline
// covers, or the uploaded "cover" file.
func coverForm(c *gin.Context, maxBytes int64) (covers.Source, error) {
	src := covers.Source{Encoded: c.PostForm("cover")}
	if err := covers.CheckInlineSize(src.Encoded, maxBytes); err != nil {
		return covers.Source{}, err
	}

	fh, err := c.FormFile("cover")
	if err != nil {
		// No file part, or not a multipart form at all.
		return src, nil
	}
	upload, err := covers.UploadFromFileHeader(fh, maxBytes)
	if err != nil {
		return src, err
	}
	src.Upload = upload
	return src, nil
}

// bookView builds an unsaved book from form fields for re-rendering.
func bookView(id string, fields books.Fields) *entities.Book {
	book := &entities.Book{ID: id}
	fields.ApplyTo(book)
	return book
}

// noAudit is used when no Auditor is configured.
type noAudit struct{}

func (noAudit) LogCreate(string, string, string, string) {}
func (noAudit) LogUpdate(string, string, string, string) {}
func (noAudit) LogDelete(string, string, string, string) {}

func (noAudit) RecentEvents(int) ([]entities.AuditEvent, error) { return nil, nil }

func (noAudit) History(string, string, int) ([]entities.AuditEvent, error) { return nil, nil }

// formatDate renders dates in listings.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}
