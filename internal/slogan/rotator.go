package slogan

import (
	"context"
	"slices"
	"sync"
	"time"
)

// DefaultInterval is the rotation period of the hero slogan.
const DefaultInterval = 3 * time.Second

// Rotator holds the index of the slogan currently on display.
type Rotator struct {
	mu    sync.RWMutex
	items []string
	idx   int
}

// NewRotator creates a rotator over items, falling back to DefaultSlogans
// when items is empty.
func NewRotator(items []string) *Rotator {
	r := &Rotator{}
	r.SetItems(items)
	return r
}

// SetItems replaces the slogan list. The index resets to zero only when the
// list content actually changes.
func (r *Rotator) SetItems(items []string) {
	if len(items) == 0 {
		items = DefaultSlogans
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.items != nil && slices.Equal(r.items, items) {
		return
	}
	r.items = append([]string(nil), items...)
	r.idx = 0
}

// Advance moves to the next slogan, wrapping at the end.
func (r *Rotator) Advance() {
	r.mu.Lock()
	r.idx = (r.idx + 1) % len(r.items)
	r.mu.Unlock()
}

// Index returns the zero-based index on display.
func (r *Rotator) Index() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idx
}

// Current returns the slogan on display.
func (r *Rotator) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items[r.idx]
}

// Items returns a copy of the slogan list.
func (r *Rotator) Items() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.items...)
}

// Run advances once per tick until ctx is done or ticks is closed.
func (r *Rotator) Run(ctx context.Context, ticks <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			r.Advance()
		}
	}
}

// Start runs the rotator on a ticker with the given interval. The ticker
// is stopped when ctx is done.
func (r *Rotator) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		r.Run(ctx, ticker.C)
	}()
}
