package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/covers"
)

// methodOverrideParam names the form field or query parameter HTML forms
// use to send PUT and DELETE.
const methodOverrideParam = "_method"

const (
	// formOverheadBytes covers the non-cover form fields and multipart framing.
	formOverheadBytes = 1 << 20
	// multipartMemory matches gin's default MaxMultipartMemory.
	multipartMemory = 32 << 20
)

// RequestBodyLimit is the largest request body accepted when covers are
// limited to maxUploadBytes. Zero means no limit.
func RequestBodyLimit(maxUploadBytes int64) int64 {
	if maxUploadBytes <= 0 {
		return 0
	}
	return covers.MaxInlineBytes(maxUploadBytes) + formOverheadBytes
}

// MethodOverride rewrites POST requests carrying _method=PUT|DELETE|PATCH.
// It must wrap the engine itself, since gin picks the route before any
// middleware runs. Bodies are capped at maxBodyBytes before the form is
// parsed; larger requests get 413.
func MethodOverride(next http.Handler, maxBodyBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if maxBodyBytes > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			}
			if err := parseForm(r); err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					log.Warn().Int64("limit", tooLarge.Limit).Str("path", r.URL.Path).Msg("Request body too large")
					http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
					return
				}
			}

			override := r.URL.Query().Get(methodOverrideParam)
			if override == "" {
				override = r.PostFormValue(methodOverrideParam)
			}
			switch m := strings.ToUpper(strings.TrimSpace(override)); m {
			case http.MethodPut, http.MethodDelete, http.MethodPatch:
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}

func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(multipartMemory)
	}
	return r.ParseForm()
}

// SecurityHeadersMiddleware adds security headers to all responses.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Inline covers are rendered as data: URLs on some pages.
		c.Header("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self'; "+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data:; "+
				"frame-ancestors 'none'; "+
				"form-action 'self'")

		c.Header("Permissions-Policy", "camera=(), geolocation=(), microphone=(), payment=(), usb=()")

		c.Next()
	}
}

// CSRFMiddleware protects every unsafe request with a gorilla/csrf token.
// Templates embed the token via the CSRFField page value.
func CSRFMiddleware(secret []byte, secure bool) gin.HandlerFunc {
	protect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		r := c.Request
		if !secure {
			// Without this the origin check assumes https and rejects
			// every form posted over plain http.
			r = csrf.PlaintextHTTPRequest(r)
		}

		passed := false
		handler := protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		}))
		handler.ServeHTTP(c.Writer, r)

		if !passed {
			c.Abort()
		}
	}
}

// csrfErrorHandler handles CSRF validation failures.
func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	log.Warn().Err(csrf.FailureReason(r)).Str("path", r.URL.Path).Msg("CSRF check failed")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Form Expired</title></head>
<body>
<h1>Form Expired</h1>
<p>The form submission could not be verified.</p>
<p><a href="javascript:history.back()">Go back and try again</a></p>
</body>
</html>`))
}

// ReadOnlyMiddleware rejects every request that could change the catalog.
func ReadOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		const message = "The catalog is read-only"
		if strings.Contains(c.GetHeader("Accept"), "application/json") {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: message})
			return
		}
		c.String(http.StatusForbidden, message)
		c.Abort()
	}
}

// RecoveryMiddleware turns panics into a 500 and logs them.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("Recovered from panic")
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}
