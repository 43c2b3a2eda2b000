package query

import (
	"context"
	"time"
)

// Start launches a poller for every registered query. Each poller fetches
// right away, then again on every tick of the interval and whenever the
// query is invalidated. Start returns once all the pollers are running.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrStarted
	}
	s.started = true

	keys := make([]Key, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	s.mu.Unlock()

	ctx, s.cancel = context.WithCancel(ctx)

	// Set waitgroup to match the number of G's we need for the set
	// of queries we have.
	g := len(keys)
	s.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	for _, key := range keys {
		go func(key Key) {
			defer s.wg.Done()
			hasStarted <- true
			s.pollOperations(ctx, key)
		}(key)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	return nil
}

// Shutdown terminates the pollers and waits for any fetch in flight to
// finish.
func (s *Store) Shutdown() {
	s.evHandler("query: shutdown: started")
	defer s.evHandler("query: shutdown: completed")

	s.shutOnce.Do(func() {
		close(s.shut)
		if s.cancel != nil {
			s.cancel()
		}
	})

	s.evHandler("query: shutdown: terminate goroutines")
	s.wg.Wait()
}

// =============================================================================

// pollOperations handles fetching a single query on a schedule.
func (s *Store) pollOperations(ctx context.Context, key Key) {
	s.evHandler("query: pollOperations: %s: G started", key)
	defer s.evHandler("query: pollOperations: %s: G completed", key)

	s.mu.RLock()
	signal := s.entries[key].signal
	s.mu.RUnlock()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.issue(ctx, key)

	for {
		select {
		case <-ticker.C:
			if !s.isShutdown() {
				s.issue(ctx, key)
			}

		case <-signal:
			if !s.isShutdown() {
				s.evHandler("query: pollOperations: %s: invalidated", key)
				s.issue(ctx, key)
			}

		case <-s.shut:
			s.evHandler("query: pollOperations: %s: received shut signal", key)
			return
		}
	}
}

// issue starts a fetch in its own G so a slow request doesn't hold up
// the next tick or an invalidation.
func (s *Store) issue(ctx context.Context, key Key) {
	seq, fetch, err := s.begin(key)
	if err != nil {
		s.evHandler("query: issue: %s: ERROR: %s", key, err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx, key, seq, fetch)
	}()
}

// isShutdown is used to test if a shutdown has been signaled.
func (s *Store) isShutdown() bool {
	select {
	case <-s.shut:
		return true
	default:
		return false
	}
}
