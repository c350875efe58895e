package router

import (
	"net/http"

	"github.com/maildraft/maildraft/internal/config"
	"github.com/maildraft/maildraft/internal/handler"
	"github.com/maildraft/maildraft/internal/middleware"
)

// New creates and configures the HTTP router
func New(h *handler.Handler, mw *middleware.Middleware, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// One fixed-window limit covers the whole API surface
	apiRateLimit := mw.RateLimit(middleware.RateLimitConfig{
		Limit:  cfg.RateLimiting.Limit,
		Window: cfg.RateLimiting.Window,
		KeyFn:  middleware.IPKey,
	})

	mux.Handle("GET /api/health", apiRateLimit(http.HandlerFunc(h.Health)))
	mux.Handle("GET /api/test-email-config", apiRateLimit(http.HandlerFunc(h.TestEmailConfig)))
	mux.Handle("POST /api/generate-email", apiRateLimit(http.HandlerFunc(h.GenerateEmail)))
	mux.Handle("POST /api/send-email", apiRateLimit(http.HandlerFunc(h.SendEmail)))

	// Everything else is a JSON 404
	mux.HandleFunc("/", h.NotFound)

	// Apply middleware stack
	var root http.Handler = mux

	// Body size cap
	root = mw.MaxBody(cfg.Server.MaxBodyBytes)(root)

	// CORS
	root = mw.CORS(cfg.CORS.AllowedOrigin)(root)

	// Security headers
	root = mw.SecurityHeaders(root)

	// Request logging
	root = mw.Logger(root)

	// Timing
	root = mw.Timing(root)

	// Request ID
	root = mw.RequestID(root)

	// Panic recovery (outermost)
	root = mw.Recover(root)

	return root
}
