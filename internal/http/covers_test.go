package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/covers"
	"github.com/mrlokans/librarian/internal/search"
)

func TestCoversController_GetCover(t *testing.T) {
	t.Run("serves an inline cover", func(t *testing.T) {
		app := newTestApp(t, covers.StrategyInline)
		author := app.createAuthor(t, "Italo Calvino")

		form := bookValues(author.ID, "Invisible Cities")
		form.Set("cover", encodedPNG())
		require.Equal(t, http.StatusSeeOther, app.submit(t, http.MethodPost, "/books", form).Code)
		list, err := app.books.List(t.Context(), search.BookFilter{})
		require.NoError(t, err)
		require.Len(t, list, 1)

		w := app.get(t, "/books/"+list[0].ID+"/cover")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Equal(t, `inline; filename="Invisible Cities.png"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, pngBytes, w.Body.Bytes())
	})

	t.Run("serves a stored file", func(t *testing.T) {
		app := newTestApp(t, covers.StrategyFile)
		author := app.createAuthor(t, "Italo Calvino")

		req := multipartRequest(t, http.MethodPost, "/books", bookValues(author.ID, "Cosmicomics"), "c.png", "image/png", pngBytes)
		require.Equal(t, http.StatusSeeOther, app.do(t, req).Code)
		list, err := app.books.List(t.Context(), search.BookFilter{})
		require.NoError(t, err)
		require.Len(t, list, 1)

		w := app.get(t, "/books/"+list[0].ID+"/cover")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Equal(t, pngBytes, w.Body.Bytes())
	})

	t.Run("missing stored file is 404", func(t *testing.T) {
		app := newTestApp(t, covers.StrategyFile)
		author := app.createAuthor(t, "Italo Calvino")

		req := multipartRequest(t, http.MethodPost, "/books", bookValues(author.ID, "Mr. Palomar"), "p.png", "image/png", pngBytes)
		require.Equal(t, http.StatusSeeOther, app.do(t, req).Code)
		list, err := app.books.List(t.Context(), search.BookFilter{})
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.NoError(t, app.store.Delete(t.Context(), list[0].CoverImageName))

		w := app.get(t, "/books/"+list[0].ID+"/cover")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("book without cover is 404", func(t *testing.T) {
		app := newTestApp(t, covers.StrategyInline)
		author := app.createAuthor(t, "Italo Calvino")
		book := app.createBook(t, author.ID, "The Baron in the Trees", day(1957, 1, 1))

		w := app.get(t, "/books/"+book.ID+"/cover")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown book is 404", func(t *testing.T) {
		app := newTestApp(t, covers.StrategyInline)

		w := app.get(t, "/books/missing/cover")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
