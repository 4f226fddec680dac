// Package scan runs batches of suspect URLs through the detector as
// background tasks, tracking per-scan progress in a process-wide registry
// with timed eviction.
package scan

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/fruzzinn/phishwatch/internal/domain"
)

// DefaultRetention is how long a finished scan stays pollable.
const DefaultRetention = 30 * time.Minute

const sweepInterval = time.Minute

// Registry stores scan state by scan id. Each entry is mutated only by the
// scan task that owns it; pollers receive copies.
type Registry interface {
	Create(state *domain.ScanState)
	Get(scanID string) (domain.ScanState, bool)
	Update(scanID string, mutate func(*domain.ScanState))
}

// MemoryRegistry is the in-process Registry. Terminal scans (completed or
// errored) are garbage-collected by a janitor once the retention window
// has passed, not immediately.
type MemoryRegistry struct {
	mu        sync.RWMutex
	scans     map[string]*domain.ScanState
	doneAt    map[string]time.Time
	clock     clockwork.Clock
	retention time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewMemoryRegistry(clock clockwork.Clock, retention time.Duration) *MemoryRegistry {
	r := &MemoryRegistry{
		scans:     make(map[string]*domain.ScanState),
		doneAt:    make(map[string]time.Time),
		clock:     clock,
		retention: retention,
		stop:      make(chan struct{}),
	}
	go r.janitor()
	return r
}

func (r *MemoryRegistry) Create(state *domain.ScanState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scans[state.ScanID] = state
}

// Get returns a copy of the scan state so pollers never observe a
// mid-mutation view.
func (r *MemoryRegistry) Get(scanID string) (domain.ScanState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.scans[scanID]
	if !ok {
		return domain.ScanState{}, false
	}
	return *state, true
}

// Update applies a mutation under the registry lock. Only the owning scan
// task calls this for a given id.
func (r *MemoryRegistry) Update(scanID string, mutate func(*domain.ScanState)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.scans[scanID]
	if !ok {
		return
	}
	mutate(state)
	if state.Status == domain.ScanCompleted || state.Status == domain.ScanError {
		if _, marked := r.doneAt[scanID]; !marked {
			r.doneAt[scanID] = r.clock.Now()
		}
	}
}

// Close stops the janitor.
func (r *MemoryRegistry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *MemoryRegistry) janitor() {
	ticker := r.clock.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.Chan():
			r.sweep()
		case <-r.stop:
			return
		}
	}
}

func (r *MemoryRegistry) sweep() {
	now := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, finished := range r.doneAt {
		if now.Sub(finished) >= r.retention {
			delete(r.scans, id)
			delete(r.doneAt, id)
		}
	}
}
