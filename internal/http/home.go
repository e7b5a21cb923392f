package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	recentBooksLimit    = 10
	recentActivityLimit = 10
)

type HomeController struct {
	*pages
	books   BookStore
	auditor Auditor
}

func NewHomeController(p *pages, books BookStore, auditor Auditor) *HomeController {
	return &HomeController{pages: p, books: books, auditor: auditor}
}

// Index shows the most recently added books and catalog activity.
// GET /
func (hc *HomeController) Index(c *gin.Context) {
	recent, err := hc.books.Recent(c.Request.Context(), recentBooksLimit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load recent books")
		recent = nil
	}

	activity, err := hc.auditor.RecentEvents(recentActivityLimit)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load recent activity")
	}

	hc.render(c, http.StatusOK, "index", gin.H{
		"Books":    recent,
		"Activity": activity,
	})
}
