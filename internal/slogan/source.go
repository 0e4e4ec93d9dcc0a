// Package slogan loads the hero slogans and rotates through them.
package slogan

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// DefaultSlogans are shown when the slogan document cannot be loaded.
var DefaultSlogans = []string{
	"Gidersen Daha Ucuz",
	"Gidersen Daha Hızlı",
	"Gidersen Daha Mutlu",
	"Gidersen Doğru Ürün",
}

// maxDocumentSize bounds the slogan document read from any source.
const maxDocumentSize = 64 << 10

// Source loads the slogan list.
type Source interface {
	Load(ctx context.Context) ([]string, error)
}

// HTTPSource fetches {"slogans": [...]} over HTTP with caching disabled.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// Load fetches and parses the slogan document.
func (s HTTPSource) Load(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build slogans request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch slogans: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("slogans fetch failed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read slogans: %w", err)
	}

	return Parse(body)
}

// FileSource reads the slogan document from disk.
type FileSource struct {
	Path string
}

// Load reads and parses the slogan document.
func (s FileSource) Load(_ context.Context) ([]string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open slogans file %s: %w", s.Path, err)
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read slogans file %s: %w", s.Path, err)
	}

	return Parse(body)
}

// Parse extracts the non-empty string entries of the "slogans" array.
func Parse(doc []byte) ([]string, error) {
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("slogans document is not valid JSON")
	}

	list := gjson.GetBytes(doc, "slogans")
	if !list.IsArray() {
		return nil, fmt.Errorf("slogans document has no slogans array")
	}

	var slogans []string
	list.ForEach(func(_, v gjson.Result) bool {
		if v.Type == gjson.String {
			if s := strings.TrimSpace(v.String()); s != "" {
				slogans = append(slogans, s)
			}
		}
		return true
	})

	if len(slogans) == 0 {
		return nil, fmt.Errorf("slogans array is empty")
	}

	return slogans, nil
}

// Load returns the slogans from src, or DefaultSlogans on any failure.
func Load(ctx context.Context, src Source, logger zerolog.Logger) []string {
	if src == nil {
		return DefaultSlogans
	}

	slogans, err := src.Load(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("using default slogans")
		return DefaultSlogans
	}

	logger.Info().Int("count", len(slogans)).Msg("slogans loaded")
	return slogans
}
