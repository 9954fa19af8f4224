package datagrid

import (
	"context"
	"sync"

	"github.com/goliatone/go-datagrid/layering"
)

// saveQueue holds at most one pending snapshot. A newer snapshot replaces
// an unsaved older one; one worker drains the queue at a time.
type saveQueue struct {
	mu      sync.Mutex
	pending *Snapshot
	active  bool
	idle    chan struct{}
}

// offer queues snapshot and reports whether a worker must be started.
func (q *saveQueue) offer(snapshot Snapshot) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = &snapshot
	if q.active {
		return false
	}
	q.active = true
	q.idle = make(chan struct{})
	return true
}

// take returns the next snapshot, or marks the queue idle when empty.
func (q *saveQueue) take() (Snapshot, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending == nil {
		q.active = false
		close(q.idle)
		return Snapshot{}, false
	}
	snapshot := *q.pending
	q.pending = nil
	return snapshot, true
}

func (q *saveQueue) done() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.active {
		return nil
	}
	return q.idle
}

// saveLocked queues the persisted snapshot for a background save. Callers
// hold g.mu; the store is never called under it.
func (g *Grid) saveLocked() {
	if g.saves.offer(layering.Clone(g.persisted)) {
		go g.drainSaves()
	}
}

func (g *Grid) drainSaves() {
	for {
		snapshot, ok := g.saves.take()
		if !ok {
			return
		}
		g.mu.Lock()
		meta := g.meta
		g.mu.Unlock()

		saved, err := g.store.Save(g.ctx, g.ref, snapshot, meta)
		if err != nil {
			if !IsCancellation(err) {
				g.logger.Warn("datagrid: persist state failed", "panel", g.cfg.PanelID, "error", err)
			}
			continue
		}
		g.mu.Lock()
		g.meta = saved
		g.mu.Unlock()
	}
}

// Flush waits until queued state saves reached the store or ctx is done.
func (g *Grid) Flush(ctx context.Context) error {
	done := g.saves.done()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-orBackground(ctx).Done():
		return ctx.Err()
	}
}
