package widget

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-widget/internal/metrics"
)

// entry holds one widget instance and when it was last used.
type entry struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Registry is a concurrency-safe set of independent widget instances keyed
// by id. Instances idle for longer than maxIdle are dropped by Prune.
type Registry struct {
	mu sync.RWMutex

	// key: widget id
	widgets map[string]*entry

	maxIdle time.Duration // 0 = keep forever
	factory func() *Controller
	now     func() time.Time
}

// NewRegistry creates a Registry that builds new instances with factory.
func NewRegistry(factory func() *Controller, maxIdle time.Duration) *Registry {
	return &Registry{
		widgets: make(map[string]*entry),
		maxIdle: maxIdle,
		factory: factory,
		now:     time.Now,
	}
}

// Get returns the widget for id, creating a fresh one under a new id when id
// is empty, malformed or unknown. The returned id is the one to hand back to
// the client.
func (r *Registry) Get(id string) (string, *Controller, bool) {
	now := r.now()

	if _, err := uuid.Parse(id); err == nil {
		r.mu.Lock()
		if e, ok := r.widgets[id]; ok {
			e.lastSeen = now
			r.mu.Unlock()
			return id, e.ctrl, false
		}
		r.mu.Unlock()
	}

	id = uuid.NewString()
	ctrl := r.factory()

	r.mu.Lock()
	r.widgets[id] = &entry{ctrl: ctrl, lastSeen: now}
	n := len(r.widgets)
	r.mu.Unlock()

	metrics.ActiveWidgets.Set(float64(n))
	return id, ctrl, true
}

// Len returns the number of live instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.widgets)
}

// Each calls fn for every live instance in id order. fn runs without the
// registry lock held.
func (r *Registry) Each(fn func(id string, c *Controller)) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.widgets))
	ctrls := make(map[string]*Controller, len(r.widgets))
	for id, e := range r.widgets {
		ids = append(ids, id)
		ctrls[id] = e.ctrl
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	for _, id := range ids {
		fn(id, ctrls[id])
	}
}

// Prune drops instances idle for longer than maxIdle and returns how many
// were removed.
func (r *Registry) Prune() int {
	if r.maxIdle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.maxIdle)

	r.mu.Lock()
	removed := 0
	for id, e := range r.widgets {
		if e.lastSeen.Before(cutoff) {
			delete(r.widgets, id)
			removed++
		}
	}
	n := len(r.widgets)
	r.mu.Unlock()

	metrics.ActiveWidgets.Set(float64(n))
	return removed
}
