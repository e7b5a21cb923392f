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

type BooksController struct {
	*pages
	books          BookStore
	authors        AuthorStore
	auditor        Auditor
	maxUploadBytes int64
}

func NewBooksController(p *pages, books BookStore, authors AuthorStore, auditor Auditor, maxUploadBytes int64) *BooksController {
	return &BooksController{
		pages:          p,
		books:          books,
		authors:        authors,
		auditor:        auditor,
		maxUploadBytes: maxUploadBytes,
	}
}

// Index lists books matching the title and publish date filters.
// GET /books
func (bc *BooksController) Index(c *gin.Context) {
	filter, err := search.ParseBookFilter(c.Request.URL.Query())
	if err != nil {
		log.Debug().Err(err).Msg("Invalid book filter")
		redirect(c, "/")
		return
	}

	list, err := bc.books.List(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list books")
		redirect(c, "/")
		return
	}

	bc.render(c, http.StatusOK, "books/index", gin.H{
		"Books":    list,
		"Filtered": !filter.IsEmpty(),
		"SearchOptions": gin.H{
			"Title":           filter.Title.OrElse(""),
			"PublishedAfter":  c.Query(search.ParamPublishedAfter),
			"PublishedBefore": c.Query(search.ParamPublishedBefore),
		},
	})
}

// New renders a blank book form.
// GET /books/new
func (bc *BooksController) New(c *gin.Context) {
	bc.renderForm(c, http.StatusOK, "new", &entities.Book{}, "", nil)
}

// Create stores a new book with its cover.
// POST /books
func (bc *BooksController) Create(c *gin.Context) {
	fields, err := bookForm(c)
	src, coverErr := coverForm(c, bc.maxUploadBytes)
	if err == nil {
		err = coverErr
	}

	var book *entities.Book
	if err == nil {
		book, err = bc.books.Create(c.Request.Context(), fields, src)
	}
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create book")
		bc.renderForm(c, formErrorStatus(err), "new", bookView("", fields), "Error Creating Book", err)
		return
	}

	bc.auditor.LogCreate(audit.EntityBook, book.ID, book.Title, c.ClientIP())
	bc.flash(c, session.FlashSuccess, "Book created")
	redirect(c, "/books")
}

// Show renders a book with its author.
// GET /books/:id
func (bc *BooksController) Show(c *gin.Context) {
	id := c.Param("id")

	book, err := bc.books.Get(c.Request.Context(), id)
	if err != nil {
		logLookupError(err, "book", id)
		redirect(c, "/")
		return
	}

	bc.render(c, http.StatusOK, "books/show", bc.showData(book))
}

// Edit renders the book form with current values.
// GET /books/:id/edit
func (bc *BooksController) Edit(c *gin.Context) {
	id := c.Param("id")

	book, err := bc.books.Get(c.Request.Context(), id)
	if err != nil {
		logLookupError(err, "book", id)
		redirect(c, "/")
		return
	}

	bc.renderForm(c, http.StatusOK, "edit", book, "", nil)
}

// Update replaces the book fields and, when one was submitted, its cover.
// PUT /books/:id
func (bc *BooksController) Update(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	fields, err := bookForm(c)
	src, coverErr := coverForm(c, bc.maxUploadBytes)
	if err == nil {
		err = coverErr
	}

	var book *entities.Book
	if err == nil {
		book, err = bc.books.Update(ctx, id, fields, src)
	}
	if errors.Is(err, entities.ErrNotFound) {
		redirect(c, "/")
		return
	}
	if err != nil {
		stored, getErr := bc.books.Get(ctx, id)
		if errors.Is(getErr, entities.ErrNotFound) {
			redirect(c, "/")
			return
		}
		log.Warn().Err(err).Str("book_id", id).Msg("Failed to update book")

		view := bookView(id, fields)
		if stored != nil {
			view.CoverImage = stored.CoverImage
			view.CoverImageType = stored.CoverImageType
			view.CoverImageName = stored.CoverImageName
		}
		bc.renderForm(c, formErrorStatus(err), "edit", view, "Error Updating Book", err)
		return
	}

	bc.auditor.LogUpdate(audit.EntityBook, book.ID, book.Title, c.ClientIP())
	bc.flash(c, session.FlashSuccess, "Book updated")
	redirect(c, "/books/"+book.ID)
}

// Delete removes a book. A stored cover file is kept.
// DELETE /books/:id
func (bc *BooksController) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	book, err := bc.books.Get(ctx, id)
	if err != nil {
		logLookupError(err, "book", id)
		redirect(c, "/")
		return
	}

	if err := bc.books.Delete(ctx, id); err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			redirect(c, "/")
			return
		}
		log.Error().Err(err).Str("book_id", id).Msg("Failed to delete book")
		data := bc.showData(book)
		data["ErrorMessage"] = "Could not remove book."
		bc.render(c, http.StatusInternalServerError, "books/show", data)
		return
	}

	bc.auditor.LogDelete(audit.EntityBook, id, book.Title, c.ClientIP())
	bc.flash(c, session.FlashSuccess, "Book deleted")
	redirect(c, "/books")
}

func (bc *BooksController) showData(book *entities.Book) gin.H {
	history, err := bc.auditor.History(audit.EntityBook, book.ID, historyLimit)
	if err != nil {
		log.Warn().Err(err).Str("book_id", book.ID).Msg("Failed to load book history")
	}
	return gin.H{
		"Book":    book,
		"History": history,
	}
}

// renderForm renders books/new or books/edit with the author choices.
// Without authors to choose from the form is useless, so a failed author
// lookup sends the client back to the listing.
func (bc *BooksController) renderForm(c *gin.Context, status int, form string, book *entities.Book, message string, err error) {
	authors, listErr := bc.authors.List(c.Request.Context(), search.AuthorFilter{})
	if listErr != nil {
		log.Error().Err(listErr).Msg("Failed to list authors for book form")
		redirect(c, "/books")
		return
	}

	data := gin.H{
		"Book":    book,
		"Authors": authors,
	}
	if message != "" {
		data["ErrorMessage"] = message
		data["Errors"] = fieldErrors(err)
	}
	bc.render(c, status, "books/"+form, data)
}
