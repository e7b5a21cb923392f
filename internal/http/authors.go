package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/search"
	"github.com/mrlokans/librarian/internal/session"
)

const (
	// Books listed on an author page.
	authorBooksLimit = 6
	// Audit events listed on a detail page.
	historyLimit = 10
)

type AuthorsController struct {
	*pages
	authors AuthorStore
	books   BookStore
	auditor Auditor
}

func NewAuthorsController(p *pages, authors AuthorStore, books BookStore, auditor Auditor) *AuthorsController {
	return &AuthorsController{
		pages:   p,
		authors: authors,
		books:   books,
		auditor: auditor,
	}
}

// Index lists authors, optionally filtered by name.
// GET /authors
func (ac *AuthorsController) Index(c *gin.Context) {
	filter := search.ParseAuthorFilter(c.Request.URL.Query())

	list, err := ac.authors.List(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list authors")
		redirect(c, "/")
		return
	}

	ac.render(c, http.StatusOK, "authors/index", gin.H{
		"Authors":       list,
		"SearchOptions": gin.H{"Name": filter.Name.OrElse("")},
	})
}

// New renders a blank author form.
// GET /authors/new
func (ac *AuthorsController) New(c *gin.Context) {
	ac.render(c, http.StatusOK, "authors/new", gin.H{
		"Author": &entities.Author{},
	})
}

// Create stores a new author.
// POST /authors
func (ac *AuthorsController) Create(c *gin.Context) {
	name := c.PostForm("name")

	author, err := ac.authors.Create(c.Request.Context(), name)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create author")
		ac.render(c, formErrorStatus(err), "authors/new", gin.H{
			"Author":       &entities.Author{Name: name},
			"ErrorMessage": "Error creating Author",
			"Errors":       fieldErrors(err),
		})
		return
	}

	ac.auditor.LogCreate(audit.EntityAuthor, author.ID, author.Name, c.ClientIP())
	ac.flash(c, session.FlashSuccess, "Author created")
	redirect(c, "/authors")
}

// Show renders an author with a few of their books.
// GET /authors/:id
func (ac *AuthorsController) Show(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	author, err := ac.authors.Get(ctx, id)
	if err != nil {
		logLookupError(err, "author", id)
		redirect(c, "/")
		return
	}

	booksByAuthor, err := ac.books.ListByAuthor(ctx, id, authorBooksLimit)
	if err != nil {
		log.Error().Err(err).Str("author_id", id).Msg("Failed to list books by author")
		redirect(c, "/")
		return
	}
	total, err := ac.books.CountByAuthor(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("author_id", id).Msg("Failed to count books by author")
		total = int64(len(booksByAuthor))
	}

	history, err := ac.auditor.History(audit.EntityAuthor, id, historyLimit)
	if err != nil {
		log.Warn().Err(err).Str("author_id", id).Msg("Failed to load author history")
	}

	ac.render(c, http.StatusOK, "authors/show", gin.H{
		"Author":     author,
		"Books":      booksByAuthor,
		"TotalBooks": total,
		"History":    history,
	})
}

// Edit renders the author form with current values.
// GET /authors/:id/edit
func (ac *AuthorsController) Edit(c *gin.Context) {
	id := c.Param("id")

	author, err := ac.authors.Get(c.Request.Context(), id)
	if err != nil {
		logLookupError(err, "author", id)
		redirect(c, "/authors")
		return
	}

	ac.render(c, http.StatusOK, "authors/edit", gin.H{
		"Author": author,
	})
}

// Update renames an author.
// PUT /authors/:id
func (ac *AuthorsController) Update(c *gin.Context) {
	id := c.Param("id")
	name := c.PostForm("name")

	author, err := ac.authors.Rename(c.Request.Context(), id, name)
	if errors.Is(err, entities.ErrNotFound) {
		redirect(c, "/")
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("author_id", id).Msg("Failed to update author")
		ac.render(c, formErrorStatus(err), "authors/edit", gin.H{
			"Author":       &entities.Author{ID: id, Name: name},
			"ErrorMessage": "Error updating Author",
			"Errors":       fieldErrors(err),
		})
		return
	}

	ac.auditor.LogUpdate(audit.EntityAuthor, author.ID, author.Name, c.ClientIP())
	ac.flash(c, session.FlashSuccess, "Author updated")
	redirect(c, "/authors/"+author.ID)
}

// Delete removes an author that no book references.
// DELETE /authors/:id
func (ac *AuthorsController) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	author, err := ac.authors.Get(ctx, id)
	if err != nil {
		logLookupError(err, "author", id)
		redirect(c, "/")
		return
	}

	if err := ac.authors.Delete(ctx, id); err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			redirect(c, "/")
			return
		}

		message := "Could not remove author."
		if errors.Is(err, entities.ErrConflict) {
			message = "Could not remove author: they still have books."
			log.Info().Str("author_id", id).Msg("Refused to delete author with books")
		} else {
			log.Error().Err(err).Str("author_id", id).Msg("Failed to delete author")
		}
		ac.flash(c, session.FlashError, message)
		redirect(c, "/authors/"+id)
		return
	}

	ac.auditor.LogDelete(audit.EntityAuthor, id, author.Name, c.ClientIP())
	ac.flash(c, session.FlashSuccess, "Author deleted")
	redirect(c, "/authors")
}

// formErrorStatus picks the status of a re-rendered form.
func formErrorStatus(err error) int {
	if errors.Is(err, entities.ErrValidation) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func logLookupError(err error, entity, id string) {
	if errors.Is(err, entities.ErrNotFound) {
		log.Debug().Str(entity+"_id", id).Msgf("%s not found", entity)
		return
	}
	log.Error().Err(err).Str(entity+"_id", id).Msgf("Failed to load %s", entity)
}
