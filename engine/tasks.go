package engine

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

// taskSet tracks detached background work. Each task runs under the set's
// root context, which Shutdown cancels; pipeline stages observe the
// cancellation at their boundaries and wind down.
type taskSet struct {
	mu      sync.Mutex
	wg      sync.WaitGroup
	rootCtx context.Context
	cancel  context.CancelFunc
	active  map[string]string // task id -> name
	closed  bool
}

func newTaskSet() *taskSet {
	ctx, cancel := context.WithCancel(context.Background())
	return &taskSet{
		rootCtx: ctx,
		cancel:  cancel,
		active:  make(map[string]string),
	}
}

// spawn starts fn on a new goroutine and returns its task id, or "" when
// the set is already shut down. Panics are contained and logged.
func (t *taskSet) spawn(name string, fn func(ctx context.Context)) string {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ""
	}
	id := uuid.NewString()
	t.active[id] = name
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[ENGINE] background task %s (%s) panicked: %v", name, id, r)
			}
			t.mu.Lock()
			delete(t.active, id)
			t.mu.Unlock()
			t.wg.Done()
		}()
		fn(t.rootCtx)
	}()
	return id
}

// count returns the number of live tasks.
func (t *taskSet) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

// shutdown cancels the root context and waits for every task, or gives up
// when ctx expires first.
func (t *taskSet) shutdown(ctx context.Context) error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.cancel()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
