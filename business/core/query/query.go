// Package query implements the synchronization layer between the gateway
// and everything that displays ledger data. Each query is identified by a
// key, polled on a fixed interval, and cached so consumers always have the
// last good value along with the state of the most recent fetch.
package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
)

// Set of known query keys.
const (
	KeyChain Key = "chain"
	KeyStats Key = "chain-stats"
)

// Default settings for the store.
const (
	DefaultInterval = 5 * time.Second
	DefaultTimeout  = 10 * time.Second
)

// Set of errors returned by the store.
var (
	ErrUnknownKey = errors.New("unknown query key")
	ErrStarted    = errors.New("store already started")
)

// Key identifies a query in the store.
type Key string

// FetchFunc retrieves the latest value for a query.
type FetchFunc func(ctx context.Context) (any, error)

// EventHandler defines a function that is called when events
// occur in the processing of queries.
type EventHandler func(v string, args ...any)

// Invalidator represents behavior for marking a query stale so it is
// fetched again right away.
type Invalidator interface {
	Invalidate(key Key)
}

// Update is sent to subscribers every time the result of a fetch is
// applied to the store.
type Update struct {
	Key Key       `json:"key"`
	At  time.Time `json:"at"`
	Err error     `json:"-"`
}

// State represents what is known about a query at a point in time.
type State[T any] struct {
	Data        T
	HasData     bool
	IsLoading   bool
	IsFetching  bool
	Err         error
	FetchedAt   time.Time
	Invalidated bool
}

// =============================================================================

// Config represents the configuration required to construct a store.
type Config struct {
	Interval  time.Duration
	Timeout   time.Duration
	EvHandler EventHandler
}

// entry holds the cached value and fetch bookkeeping for a single key.
type entry struct {
	fetch  FetchFunc
	signal chan struct{}

	data        any
	hasData     bool
	err         error
	fetchedAt   time.Time
	invalidated bool

	issued   uint64
	applied  uint64
	inFlight int
}

// Store manages the set of polled queries.
type Store struct {
	interval  time.Duration
	timeout   time.Duration
	evHandler EventHandler

	mu      sync.RWMutex
	entries map[Key]*entry
	started bool

	feed     event.Feed
	wg       sync.WaitGroup
	shut     chan struct{}
	shutOnce sync.Once
	cancel   context.CancelFunc
}

// New constructs a store for registering and polling queries.
func New(cfg Config) *Store {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Store{
		interval:  interval,
		timeout:   timeout,
		evHandler: ev,
		entries:   make(map[Key]*entry),
		shut:      make(chan struct{}),
	}
}

// Register adds a query to the store. All queries must be registered
// before the store is started.
func (s *Store) Register(key Key, fetch FetchFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrStarted
	}

	if _, exists := s.entries[key]; exists {
		return fmt.Errorf("query %q already registered", key)
	}

	s.entries[key] = &entry{
		fetch:  fetch,
		signal: make(chan struct{}, 1),
	}

	return nil
}

// Keys returns the set of registered query keys.
func (s *Store) Keys() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]Key, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	return keys
}

// Subscribe registers the channel to receive an update every time a fetch
// result is applied. The channel should be buffered and drained since the
// store waits for every subscriber to receive the update.
func (s *Store) Subscribe(ch chan<- Update) event.Subscription {
	return s.feed.Subscribe(ch)
}

// Invalidate marks the query stale and signals its poller to fetch right
// away instead of waiting for the next tick. Multiple signals that arrive
// before the poller wakes up are collapsed into one fetch.
func (s *Store) Invalidate(key Key) {
	s.mu.Lock()
	e, exists := s.entries[key]
	if exists {
		e.invalidated = true
	}
	s.mu.Unlock()

	if !exists {
		s.evHandler("query: Invalidate: %s: %s", key, ErrUnknownKey)
		return
	}

	select {
	case e.signal <- struct{}{}:
		s.evHandler("query: Invalidate: %s: refetch signaled", key)
	default:
	}
}

// Refresh fetches the query and applies the result before returning. The
// error from the fetch is returned, but like a scheduled poll a failure
// never removes the last good value.
func (s *Store) Refresh(ctx context.Context, key Key) error {
	seq, fetch, err := s.begin(key)
	if err != nil {
		return err
	}

	return s.run(ctx, key, seq, fetch)
}

// =============================================================================

// Lookup returns the current state of the query as the specified type. A
// value cached under the key that isn't of type T is reported as an error.
func Lookup[T any](s *Store, key Key) State[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[key]
	if !exists {
		return State[T]{Err: ErrUnknownKey}
	}

	st := State[T]{
		HasData:     e.hasData,
		IsLoading:   !e.hasData && e.inFlight > 0,
		IsFetching:  e.inFlight > 0,
		Err:         e.err,
		FetchedAt:   e.fetchedAt,
		Invalidated: e.invalidated,
	}

	if e.hasData {
		data, ok := e.data.(T)
		if !ok {
			st.HasData = false
			st.Err = fmt.Errorf("query %q holds %T", key, e.data)
			return st
		}
		st.Data = data
	}

	return st
}

// =============================================================================

// begin issues a new sequence number for the key. Only the result of the
// most recently issued fetch is applied.
func (s *Store) begin(key Key) (uint64, FetchFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[key]
	if !exists {
		return 0, nil, ErrUnknownKey
	}

	e.issued++
	e.inFlight++

	return e.issued, e.fetch, nil
}

// run performs the fetch bounded by the store timeout and applies the
// result.
func (s *Store) run(ctx context.Context, key Key, seq uint64, fetch FetchFunc) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := fetch(ctx)
	s.apply(key, seq, data, err)

	return err
}

// apply replaces the cached value wholesale if the result belongs to the
// most recently issued fetch. Results of superseded fetches are dropped so
// a slow request can't overwrite newer data.
func (s *Store) apply(key Key, seq uint64, data any, err error) {
	now := time.Now()

	s.mu.Lock()
	e := s.entries[key]
	e.inFlight--

	if seq != e.issued {
		s.mu.Unlock()
		s.evHandler("query: apply: %s: seq[%d]: superseded by seq[%d]", key, seq, e.issued)
		return
	}

	e.applied = seq
	switch err {
	case nil:
		e.data = data
		e.hasData = true
		e.err = nil
		e.fetchedAt = now
		e.invalidated = false
	default:
		e.err = err
	}
	s.mu.Unlock()

	if err != nil {
		s.evHandler("query: apply: %s: seq[%d]: ERROR: %s", key, seq, err)
	}

	s.feed.Send(Update{Key: key, At: now, Err: err})
}
