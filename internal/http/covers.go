package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/utils"
)

// CoversController serves book cover images.
type CoversController struct {
	books  BookStore
	covers CoverServer
}

// NewCoversController creates a new CoversController.
func NewCoversController(books BookStore, covers CoverServer) *CoversController {
	return &CoversController{
		books:  books,
		covers: covers,
	}
}

// GetCover streams the cover of a book, whichever way it is stored.
// GET /books/:id/cover
func (cc *CoversController) GetCover(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	book, err := cc.books.Get(ctx, id)
	if err != nil {
		logLookupError(err, "book", id)
		c.Status(statusFor(err))
		return
	}

	rc, contentType, err := cc.covers.Open(ctx, book)
	if err != nil {
		if !errors.Is(err, entities.ErrNotFound) {
			log.Error().Err(err).Str("book_id", id).Msg("Failed to open cover")
		}
		c.Status(statusFor(err))
		return
	}
	defer rc.Close()

	filename := utils.SanitizeFilename(book.Title)
	if m := mimetype.Lookup(contentType); m != nil {
		filename += m.Extension()
	}

	c.DataFromReader(http.StatusOK, -1, contentType, rc, map[string]string{
		"Cache-Control":       "private, max-age=300",
		"Content-Disposition": fmt.Sprintf(`inline; filename="%s"`, filename),
	})
}

func statusFor(err error) int {
	if errors.Is(err, entities.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
