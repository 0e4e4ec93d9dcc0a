package handler

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"strconv"
	"strings"

	"gidersen/internal/model"

	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"home", "how_it_works", "products", "product", "firm"}

// Renderer executes the page templates inside the shared layout.
type Renderer struct {
	pages  map[string]*template.Template
	logger zerolog.Logger
}

// NewRenderer parses the embedded templates.
func NewRenderer(logger zerolog.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"price":    formatPrice,
		"discount": discountLabel,
		"json":     toJSON,
	}

	r := &Renderer{
		pages:  make(map[string]*template.Template, len(pages)),
		logger: logger.With().Str("component", "renderer").Logger(),
	}
	for _, name := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes page with status. The page is rendered into a buffer first
// so a template error still produces a clean 500.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) {
	t, ok := r.pages[page]
	if !ok {
		r.logger.Error().Str("page", page).Msg("unknown page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.Error().Err(err).Str("page", page).Msg("failed to render page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// formatPrice renders a price the way tr-TR does: "." groups thousands,
// "," separates decimals, which are dropped for whole amounts.
func formatPrice(v float64) string {
	v = math.Round(v*100) / 100
	neg := v < 0
	if neg {
		v = -v
	}

	whole := int64(v)
	cents := int64(math.Round((v - float64(whole)) * 100))

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	if cents > 0 {
		fmt.Fprintf(&b, ",%02d", cents)
	}
	b.WriteString(" ₺")
	return b.String()
}

// discountLabel returns the badge percentage, or "" when no badge is shown.
func discountLabel(p model.Product) string {
	pct, ok := p.DiscountPercent()
	if !ok {
		return ""
	}
	return strconv.Itoa(pct)
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
