package handler

import (
	"net/http"

	"gidersen/internal/database"
	"gidersen/internal/model"

	"github.com/rs/zerolog"
)

// apiProduct is a catalog entry with its computed badge value.
type apiProduct struct {
	model.Product
	DiscountPercent *int `json:"discountPercent,omitempty"`
}

// APIHandler serves the JSON endpoints.
type APIHandler struct {
	sessions Sessions
	db       database.Pinger
	logger   zerolog.Logger
}

// NewAPIHandler creates a new API handler. db may be nil when no database
// health check is wanted.
func NewAPIHandler(sessions Sessions, db database.Pinger, logger zerolog.Logger) *APIHandler {
	return &APIHandler{
		sessions: sessions,
		db:       db,
		logger:   logger.With().Str("handler", "api").Logger(),
	}
}

// Products handles GET /api/products: the freshly loaded catalog, or the
// session's last snapshot when loading fails.
func (h *APIHandler) Products(w http.ResponseWriter, r *http.Request) {
	c := controller(h.sessions, r)
	if err := c.RefreshCatalog(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("catalog load failed, serving last snapshot")
	}
	snapshot := c.State().Catalog

	out := make([]apiProduct, 0, len(snapshot))
	for _, p := range snapshot {
		item := apiProduct{Product: p}
		if pct, ok := p.DiscountPercent(); ok {
			item.DiscountPercent = &pct
		}
		out = append(out, item)
	}

	writeJSON(w, http.StatusOK, out)
}

// Health handles GET /health.
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := database.HealthCheck(r.Context(), h.db); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable", h.logger)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
