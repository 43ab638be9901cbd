package bundle

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/poiesic/tmbridge/core"
)

type bundleMap map[core.Terminology]*Bundle

// Registry maps terminologies to their current bundle. Readers never block;
// writers copy the map and publish the copy atomically.
type Registry struct {
	current atomic.Pointer[bundleMap]
	mu      sync.Mutex // serializes writers
}

// NewRegistry creates a registry holding bundles.
func NewRegistry(bundles ...*Bundle) *Registry {
	m := make(bundleMap, len(bundles))
	for _, b := range bundles {
		m[b.Terminology()] = b
	}
	r := &Registry{}
	r.current.Store(&m)
	return r
}

// Get returns the bundle for t.
func (r *Registry) Get(t core.Terminology) (*Bundle, bool) {
	b, ok := (*r.current.Load())[t]
	return b, ok
}

// Swap installs b as the bundle for its terminology and returns the one it
// replaced, if any. In-flight readers keep the bundle they already hold.
func (r *Registry) Swap(b *Bundle) *Bundle {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.current.Load()
	next := make(bundleMap, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	prev := next[b.Terminology()]
	next[b.Terminology()] = b
	r.current.Store(&next)
	return prev
}

// Remove drops the bundle for t.
func (r *Registry) Remove(t core.Terminology) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.current.Load()
	if _, ok := old[t]; !ok {
		return
	}
	next := make(bundleMap, len(old))
	for k, v := range old {
		if k != t {
			next[k] = v
		}
	}
	r.current.Store(&next)
}

// Terminologies lists loaded catalogs, known terminologies first in
// canonical order.
func (r *Registry) Terminologies() []core.Terminology {
	m := *r.current.Load()
	result := make([]core.Terminology, 0, len(m))
	for t := range m {
		result = append(result, t)
	}
	slices.SortFunc(result, func(a, b core.Terminology) int {
		ia, ib := slices.Index(core.Terminologies, a), slices.Index(core.Terminologies, b)
		if ia < 0 {
			ia = len(core.Terminologies)
		}
		if ib < 0 {
			ib = len(core.Terminologies)
		}
		if ia != ib {
			return ia - ib
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	return result
}
