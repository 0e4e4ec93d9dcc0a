package handler

import (
	"net/http"
	"time"

	"gidersen/internal/model"
	"gidersen/internal/route"
	"gidersen/internal/slogan"
	"gidersen/internal/storefront"

	"github.com/rs/zerolog"
)

const homeDeals = 3

// pageData is what every page template receives.
type pageData struct {
	State  storefront.State
	Error  string
	Notice string

	Slogan         string
	Slogans        []string
	SloganIndex    int
	RotationMillis int64

	Deals      []model.Product
	Product    *model.Product
	Mine       []model.Product
	Categories []string
	AuthMode   string
}

// PageHandler serves the storefront pages.
type PageHandler struct {
	sessions Sessions
	slogans  *slogan.Rotator
	interval time.Duration
	renderer *Renderer
	logger   zerolog.Logger
}

// NewPageHandler creates a new page handler.
func NewPageHandler(sessions Sessions, rotator *slogan.Rotator, interval time.Duration, renderer *Renderer, logger zerolog.Logger) *PageHandler {
	return &PageHandler{
		sessions: sessions,
		slogans:  rotator,
		interval: interval,
		renderer: renderer,
		logger:   logger.With().Str("handler", "page").Logger(),
	}
}

func (h *PageHandler) data(c *storefront.Controller) pageData {
	errMsg, notice := c.Flash()
	return pageData{
		State:  c.State(),
		Error:  errMsg,
		Notice: notice,
	}
}

// mount reloads the catalog as a fresh page load does. A failed load keeps
// the previous snapshot.
func (h *PageHandler) mount(c *storefront.Controller, r *http.Request) {
	if err := c.RefreshCatalog(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("catalog load failed")
	}
}

// Home handles GET /.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	c := controller(h.sessions, r)
	c.Navigate(route.PathHome)
	h.mount(c, r)

	d := h.data(c)
	d.Deals = d.State.Deals(homeDeals)
	d.Slogan = h.slogans.Current()
	d.Slogans = h.slogans.Items()
	d.SloganIndex = h.slogans.Index()
	d.RotationMillis = h.interval.Milliseconds()

	h.renderer.Render(w, http.StatusOK, "home", d)
}

// HowItWorks handles GET /how-it-works.
func (h *PageHandler) HowItWorks(w http.ResponseWriter, r *http.Request) {
	c := controller(h.sessions, r)
	c.Navigate(route.PathHowItWorks)

	h.renderer.Render(w, http.StatusOK, "how_it_works", h.data(c))
}

// Products handles GET /products. ?view=map and ?view=list switch the mode.
func (h *PageHandler) Products(w http.ResponseWriter, r *http.Request) {
	c := controller(h.sessions, r)
	c.Navigate(route.PathProducts)
	h.mount(c, r)

	switch r.URL.Query().Get("view") {
	case "map":
		c.SetMapView(true)
	case "list":
		c.SetMapView(false)
	}

	h.renderer.Render(w, http.StatusOK, "products", h.data(c))
}

// ProductDetail handles GET /product/{id}.
func (h *PageHandler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	c := controller(h.sessions, r)
	id := r.PathValue("id")
	c.Navigate(route.PathFor(route.ProductDetail, id))

	p, err := c.ProductDetail(r.Context(), id)
	if err != nil {
		h.logger.Warn().Err(err).Str("product_id", id).Msg("product lookup refresh failed")
	}

	d := h.data(c)
	d.Product = p

	status := http.StatusOK
	if p == nil {
		status = http.StatusNotFound
	}
	h.renderer.Render(w, status, "product", d)
}

// Firm handles GET /firm.
func (h *PageHandler) Firm(w http.ResponseWriter, r *http.Request) {
	c := controller(h.sessions, r)
	c.Navigate(route.PathFirm)
	if c.State().Authenticated() {
		h.mount(c, r)
	}

	d := h.data(c)
	d.Mine = c.MyListings()
	d.Categories = model.Categories
	d.AuthMode = "login"
	if r.URL.Query().Get("mode") == "register" {
		d.AuthMode = "register"
	}

	h.renderer.Render(w, http.StatusOK, "firm", d)
}

// ToggleMenu handles POST /menu.
func (h *PageHandler) ToggleMenu(w http.ResponseWriter, r *http.Request) {
	c := controller(h.sessions, r)
	c.ToggleMenu()
	redirect(w, r, c)
}

// Fallback redirects every path the storefront does not serve to /. A
// product path with a trailing slash is redirected to its canonical form
// and a routed path reached with the wrong method gets 405.
func (h *PageHandler) Fallback(w http.ResponseWriter, r *http.Request) {
	if _, unknown := route.Resolve(r.URL.Path); unknown {
		http.Redirect(w, r, route.PathHome, http.StatusSeeOther)
		return
	}
	if canonical := route.Canonical(r.URL.Path); canonical != r.URL.Path &&
		(r.Method == http.MethodGet || r.Method == http.MethodHead) {
		http.Redirect(w, r, canonical, http.StatusSeeOther)
		return
	}
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}
