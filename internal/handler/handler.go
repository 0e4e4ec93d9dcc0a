package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"gidersen/internal/middleware"
	"gidersen/internal/storefront"

	"github.com/rs/zerolog"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Sessions hands out the state controller of a browser session.
type Sessions interface {
	Get(ctx context.Context, sessionID string) *storefront.Controller
}

// controller returns the state controller of the request's browser session.
func controller(sessions Sessions, r *http.Request) *storefront.Controller {
	return sessions.Get(r.Context(), middleware.SessionID(r.Context()))
}

// redirect sends the browser to the path the controller navigated to.
func redirect(w http.ResponseWriter, r *http.Request, c *storefront.Controller) {
	path := c.State().Path
	if path == "" {
		path = "/"
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, ErrorResponse{Error: message})
}
