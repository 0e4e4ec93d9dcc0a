package storefront

import (
	"context"
	"sync"
	"time"

	"gidersen/internal/metrics"

	"github.com/rs/zerolog"
)

// ControllerFactory builds the Controller for a browser session id.
type ControllerFactory func(sessionID string) *Controller

type hubEntry struct {
	controller *Controller
	lastSeen   time.Time
}

// Hub keeps one Controller per browser session.
type Hub struct {
	factory ControllerFactory
	metrics metrics.Recorder
	now     func() time.Time
	logger  zerolog.Logger

	mu      sync.Mutex
	entries map[string]*hubEntry
	closed  bool
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubClock overrides the time source used for idle tracking.
func WithHubClock(now func() time.Time) HubOption {
	return func(h *Hub) { h.now = now }
}

// NewHub creates an empty Hub.
func NewHub(factory ControllerFactory, rec metrics.Recorder, logger zerolog.Logger, opts ...HubOption) *Hub {
	if rec == nil {
		rec = metrics.Nop{}
	}
	h := &Hub{
		factory: factory,
		metrics: rec,
		now:     time.Now,
		logger:  logger.With().Str("component", "storefront-hub").Logger(),
		entries: make(map[string]*hubEntry),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Get returns the Controller of sessionID, creating it on first use. The
// auth session is restored before the Controller is returned; loading the
// catalog is left to the page being served.
func (h *Hub) Get(ctx context.Context, sessionID string) *Controller {
	h.mu.Lock()
	e, ok := h.entries[sessionID]
	created := false
	if !ok {
		e = &hubEntry{controller: h.factory(sessionID)}
		if !h.closed {
			h.entries[sessionID] = e
		}
		created = true
	}
	e.lastSeen = h.now()
	n := len(h.entries)
	h.mu.Unlock()

	c := e.controller
	if err := c.InitializeSession(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("session initialization incomplete")
	}
	if created {
		h.metrics.SessionsActive(n)
	}
	return c
}

// Len returns the number of live controllers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Sweep closes controllers idle for longer than maxIdle and returns how
// many were removed.
func (h *Hub) Sweep(maxIdle time.Duration) int {
	cutoff := h.now().Add(-maxIdle)

	h.mu.Lock()
	var idle []*Controller
	for id, e := range h.entries {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e.controller)
			delete(h.entries, id)
		}
	}
	n := len(h.entries)
	h.mu.Unlock()

	for _, c := range idle {
		c.Close()
	}
	if len(idle) > 0 {
		h.metrics.SessionsActive(n)
		h.logger.Debug().Int("closed", len(idle)).Int("active", n).Msg("idle sessions swept")
	}
	return len(idle)
}

// RunSweeper sweeps every interval until ctx is done.
func (h *Hub) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Sweep(maxIdle)
		}
	}
}

// Close closes every controller. Controllers handed out afterwards are not
// tracked.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	entries := h.entries
	h.entries = make(map[string]*hubEntry)
	h.mu.Unlock()

	for _, e := range entries {
		e.controller.Close()
	}
	h.metrics.SessionsActive(0)
}
