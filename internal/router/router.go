package router

import (
	"net/http"
	"time"

	"gidersen/internal/config"
	"gidersen/internal/handler"
	"gidersen/internal/metrics"
	"gidersen/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Pages   *handler.PageHandler
	Portal  *handler.PortalHandler
	API     *handler.APIHandler
	Content http.Handler // static files under /content/
	Metrics *metrics.Metrics
}

// New creates the storefront router with all routes and middleware configured.
func New(h Handlers, limiter *middleware.RateLimiter, sessionCfg config.SessionConfig, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.API.Health)
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics.Handler())
	}
	if h.Content != nil {
		mux.Handle("GET /content/", http.StripPrefix("/content/", h.Content))
	}

	mux.HandleFunc("GET /{$}", h.Pages.Home)
	mux.HandleFunc("GET /how-it-works", h.Pages.HowItWorks)
	mux.HandleFunc("GET /products", h.Pages.Products)
	mux.HandleFunc("GET /product/{id}", h.Pages.ProductDetail)
	mux.HandleFunc("GET /firm", h.Pages.Firm)
	mux.HandleFunc("POST /menu", h.Pages.ToggleMenu)

	auth := func(fn http.HandlerFunc) http.Handler {
		if limiter == nil {
			return fn
		}
		return limiter.Handler(fn)
	}
	mux.Handle("POST /firm/login", auth(h.Portal.Login))
	mux.Handle("POST /firm/register", auth(h.Portal.Register))
	mux.Handle("POST /firm/profile", auth(h.Portal.Profile))
	mux.Handle("POST /firm/logout", auth(h.Portal.Logout))
	mux.HandleFunc("POST /firm/products", h.Portal.AddProduct)
	mux.HandleFunc("POST /firm/products/{id}/delete", h.Portal.DeleteProduct)

	mux.HandleFunc("GET /api/products", h.API.Products)

	mux.HandleFunc("/", h.Pages.Fallback)

	var rec metrics.Recorder = metrics.Nop{}
	if h.Metrics != nil {
		rec = h.Metrics
	}

	// Recovery -> Logging -> BrowserSession -> Metrics -> CORS -> mux
	return middleware.Chain(mux,
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.BrowserSession(middleware.SessionConfig{
			CookieName: sessionCfg.CookieName,
			Secure:     sessionCfg.SecureCookie,
			MaxAge:     30 * 24 * time.Hour,
		}),
		middleware.Metrics(rec),
		middleware.CORS,
	)
}
