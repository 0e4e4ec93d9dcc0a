package storefront

import (
	"context"
	"sync"
)

// taskGroup ties remote calls to the lifetime of a Controller.
type taskGroup struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func newTaskGroup() *taskGroup {
	ctx, cancel := context.WithCancel(context.Background())
	return &taskGroup{ctx: ctx, cancel: cancel}
}

// start derives a context that is cancelled when either parent or the group
// is done. done must be called when the task finishes.
func (g *taskGroup) start(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		cancel()
		return ctx, func() {}
	}
	g.wg.Add(1)
	g.mu.Unlock()

	stop := context.AfterFunc(g.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
		g.wg.Done()
	}
}

// close cancels every running task and waits for them to return.
func (g *taskGroup) close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.mu.Unlock()

	g.cancel()
	g.wg.Wait()
}
