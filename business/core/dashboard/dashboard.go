// Package dashboard ties the shared synchronization layer to the state
// that belongs to a single viewer session: which blocks are expanded and
// the transaction form.
package dashboard

import (
	"errors"
	"sync"
	"time"

	"github.com/ardanlabs/ledgerview/business/core/analytics"
	"github.com/ardanlabs/ledgerview/business/core/expansion"
	"github.com/ardanlabs/ledgerview/business/core/query"
	"github.com/ardanlabs/ledgerview/business/core/search"
	"github.com/ardanlabs/ledgerview/business/core/submit"
	"github.com/ardanlabs/ledgerview/foundation/ledger"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a view doesn't exist.
var ErrNotFound = errors.New("view not found")

// ErrNoChain is returned when a chain snapshot hasn't been received yet.
var ErrNoChain = errors.New("chain not loaded")

// ErrFull is returned when the registry holds the maximum number of views
// and none of them are idle.
var ErrFull = errors.New("too many open views")

// Default limits for the registry.
const (
	DefaultMaxViews    = 10_000
	DefaultIdleTimeout = 30 * time.Minute
)

// EventHandler defines a function that is called when events
// occur in the processing of views.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to construct a registry.
type Config struct {
	Store       *query.Store
	Gateway     submit.Gateway
	Index       *search.Index
	MaxViews    int
	IdleTimeout time.Duration
	EvHandler   EventHandler
}

// Registry maintains the set of open views.
type Registry struct {
	store       *query.Store
	gateway     submit.Gateway
	index       *search.Index
	maxViews    int
	idleTimeout time.Duration
	evHandler   EventHandler

	mu    sync.RWMutex
	views map[string]*View

	wg       sync.WaitGroup
	shut     chan struct{}
	shutOnce sync.Once
}

// NewRegistry constructs a registry for views backed by the store.
func NewRegistry(cfg Config) *Registry {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	maxViews := cfg.MaxViews
	if maxViews <= 0 {
		maxViews = DefaultMaxViews
	}

	idleTimeout := cfg.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}

	return &Registry{
		store:       cfg.Store,
		gateway:     cfg.Gateway,
		index:       cfg.Index,
		maxViews:    maxViews,
		idleTimeout: idleTimeout,
		evHandler:   ev,
		views:       make(map[string]*View),
		shut:        make(chan struct{}),
	}
}

// Create opens a new view with nothing expanded and an idle form. When the
// registry is full, idle views are expired to make room.
func (r *Registry) Create() (*View, error) {
	now := time.Now().UTC()

	v := View{
		ID:        uuid.NewString(),
		Created:   now,
		store:     r.store,
		index:     r.index,
		expansion: expansion.New(),
		form: submit.New(submit.Config{
			Gateway:     r.gateway,
			Invalidator: r.store,
			EvHandler:   submit.EventHandler(r.evHandler),
		}),
	}
	v.touch(now)

	r.mu.Lock()
	if len(r.views) >= r.maxViews {
		r.expire(now)
	}
	if len(r.views) >= r.maxViews {
		r.mu.Unlock()
		r.evHandler("dashboard: Create: %s: views[%d]", ErrFull, r.maxViews)
		return nil, ErrFull
	}
	r.views[v.ID] = &v
	r.mu.Unlock()

	r.evHandler("dashboard: Create: view[%s]", v.ID)

	return &v, nil
}

// Lookup returns the view with the specified id.
func (r *Registry) Lookup(id string) (*View, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, exists := r.views[id]
	if !exists {
		return nil, ErrNotFound
	}

	v.touch(time.Now())
	return v, nil
}

// Remove closes the view with the specified id.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.views[id]; !exists {
		return ErrNotFound
	}
	delete(r.views, id)

	r.evHandler("dashboard: Remove: view[%s]", id)
	return nil
}

// Len returns the number of open views.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.views)
}

// Expire removes the views that haven't been accessed within the idle
// timeout as of now. The number of views removed is returned.
func (r *Registry) Expire(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.expire(now)
}

// expire must be called with the write lock held.
func (r *Registry) expire(now time.Time) int {
	var n int
	for id, v := range r.views {
		if now.Sub(v.LastAccess()) > r.idleTimeout {
			delete(r.views, id)
			n++
		}
	}

	if n > 0 {
		r.evHandler("dashboard: expire: removed[%d] remaining[%d]", n, len(r.views))
	}

	return n
}

// =============================================================================

// Chain returns the state of the chain query.
func (r *Registry) Chain() query.State[ledger.ChainSnapshot] {
	return query.Lookup[ledger.ChainSnapshot](r.store, query.KeyChain)
}

// Stats returns the state of the stats query.
func (r *Registry) Stats() query.State[ledger.StatsSnapshot] {
	return query.Lookup[ledger.StatsSnapshot](r.store, query.KeyStats)
}

// Balance calculates the balance of the address from the last chain
// snapshot.
func (r *Registry) Balance(address string) (float64, error) {
	chain := r.Chain()
	if !chain.HasData {
		return 0, ErrNoChain
	}
	return chain.Data.Balance(address), nil
}

// Analytics builds the dataset of the specified kind from the last chain
// snapshot. Nothing is built before the first snapshot arrives.
func (r *Registry) Analytics(kind analytics.Kind) (analytics.Dataset, error) {
	chain := r.Chain()
	if !chain.HasData {
		return nil, ErrNoChain
	}
	return analytics.Build(kind, chain.Data)
}
