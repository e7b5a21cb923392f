package http

import (
	"encoding/base64"
	"html/template"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/logging"
	"github.com/mrlokans/librarian/internal/metrics"
)

// TemplateFuncs are the functions available to every page template.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate": formatDate,
		"coverDataURL": func(book *entities.Book) template.URL {
			if !book.HasInlineCover() {
				return ""
			}
			return template.URL("data:" + book.CoverImageType + ";base64," +
				base64.StdEncoding.EncodeToString(book.CoverImage))
		},
	}
}

// NewRouter creates and configures the HTTP router with all endpoints.
// The returned engine expects to be served through MethodOverride.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(RecoveryMiddleware())
	router.Use(logging.Middleware())
	router.Use(metrics.Middleware())
	router.Use(SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}
	if cfg.Sessions != nil {
		router.Use(cfg.Sessions.LoadSave())
	}
	if cfg.ReadOnly {
		router.Use(ReadOnlyMiddleware())
	}

	tmpl := template.Must(template.New("").Funcs(TemplateFuncs()).ParseGlob(filepath.Join(cfg.TemplatesPath, "*.html")))
	router.SetHTMLTemplate(tmpl)
	router.Static("/static", cfg.StaticPath)

	Register(router, cfg)
	return router
}

// Register adds every route to router. Templates must already be set.
func Register(router *gin.Engine, cfg RouterConfig) {
	auditor := cfg.Auditor
	if auditor == nil {
		auditor = noAudit{}
	}
	p := &pages{
		sessions: cfg.Sessions,
		readOnly: cfg.ReadOnly,
	}
	if cfg.Covers != nil {
		p.coverStrategy = cfg.Covers.Strategy()
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	home := NewHomeController(p, cfg.Books, auditor)
	authors := NewAuthorsController(p, cfg.Authors, cfg.Books, auditor)
	books := NewBooksController(p, cfg.Books, cfg.Authors, auditor, cfg.MaxUploadBytes)

	// Health and metrics endpoints
	router.GET("/health", health.Status)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	router.GET("/", home.Index)

	authorRoutes := router.Group("/authors")
	authorRoutes.GET("", authors.Index)
	authorRoutes.GET("/new", authors.New)
	authorRoutes.POST("", authors.Create)
	authorRoutes.GET("/:id", authors.Show)
	authorRoutes.GET("/:id/edit", authors.Edit)
	authorRoutes.PUT("/:id", authors.Update)
	authorRoutes.DELETE("/:id", authors.Delete)

	bookRoutes := router.Group("/books")
	bookRoutes.GET("", books.Index)
	bookRoutes.GET("/new", books.New)
	bookRoutes.POST("", books.Create)
	bookRoutes.GET("/:id", books.Show)
	bookRoutes.GET("/:id/edit", books.Edit)
	bookRoutes.PUT("/:id", books.Update)
	bookRoutes.DELETE("/:id", books.Delete)

	if cfg.Covers != nil {
		covers := NewCoversController(cfg.Books, cfg.Covers)
		bookRoutes.GET("/:id/cover", covers.GetCover)
	}
}
