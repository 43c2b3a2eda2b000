package query_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ardanlabs/ledgerview/business/core/query"
	"github.com/ardanlabs/ledgerview/foundation/ledger"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func snap(blocks int) ledger.ChainSnapshot {
	var s ledger.ChainSnapshot
	for i := range blocks {
		s.Chain = append(s.Chain, ledger.Block{Index: uint64(i)})
	}
	return s
}

func TestReadFailure(t *testing.T) {
	store := query.New(query.Config{})

	var calls int
	fetch := func(ctx context.Context) (any, error) {
		calls++
		if calls == 1 {
			return snap(3), nil
		}
		return nil, errors.New("gateway down")
	}

	if err := store.Register(query.KeyChain, fetch); err != nil {
		t.Fatalf("Should be able to register the query: %s", err)
	}

	t.Log("Given the need to keep the last good value when a poll fails.")
	{
		st := query.Lookup[ledger.ChainSnapshot](store, query.KeyChain)
		if st.HasData || st.IsLoading || st.Err != nil {
			t.Fatalf("\t%s\tShould start with no data: %+v", failed, st)
		}
		t.Logf("\t%s\tShould start with no data.", success)

		if err := store.Refresh(context.Background(), query.KeyChain); err != nil {
			t.Fatalf("\t%s\tShould be able to fetch: %s", failed, err)
		}

		good := query.Lookup[ledger.ChainSnapshot](store, query.KeyChain)
		if !good.HasData || len(good.Data.Chain) != 3 || good.Err != nil || good.FetchedAt.IsZero() {
			t.Fatalf("\t%s\tShould have the fetched snapshot: %+v", failed, good)
		}
		t.Logf("\t%s\tShould have the fetched snapshot.", success)

		if err := store.Refresh(context.Background(), query.KeyChain); err == nil {
			t.Fatalf("\t%s\tShould get the fetch error.", failed)
		}

		st = query.Lookup[ledger.ChainSnapshot](store, query.KeyChain)
		if !st.HasData || len(st.Data.Chain) != 3 {
			t.Fatalf("\t%s\tShould keep the last good snapshot: %+v", failed, st)
		}
		t.Logf("\t%s\tShould keep the last good snapshot.", success)

		if st.Err == nil {
			t.Fatalf("\t%s\tShould expose the error.", failed)
		}
		if !st.FetchedAt.Equal(good.FetchedAt) {
			t.Fatalf("\t%s\tShould not move the fetched time on failure.", failed)
		}
		t.Logf("\t%s\tShould expose the error.", success)
	}
}

func TestPollRecovers(t *testing.T) {
	store := query.New(query.Config{Interval: 20 * time.Millisecond})

	heal := make(chan struct{})

	var mu sync.Mutex
	var calls int
	fetch := func(ctx context.Context) (any, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		switch n {
		case 1:
			return snap(1), nil
		case 2, 3:
			return nil, errors.New("gateway down")
		}

		select {
		case <-heal:
			return snap(4), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	store.Register(query.KeyChain, fetch)

	updates := make(chan query.Update, 16)
	sub := store.Subscribe(updates)

	t.Log("Given the need for the poller to heal after failed ticks.")
	{
		if err := store.Start(context.Background()); err != nil {
			t.Fatalf("\t%s\tShould be able to start: %s", failed, err)
		}

		defer func() {
			sub.Unsubscribe()
			store.Shutdown()
		}()

		next := func() query.Update {
			select {
			case upd := <-updates:
				return upd
			case <-time.After(5 * time.Second):
				t.Fatalf("\t%s\tShould get an update from a later tick.", failed)
			}
			return query.Update{}
		}

		for upd := next(); upd.Err == nil; upd = next() {
		}

		st := query.Lookup[ledger.ChainSnapshot](store, query.KeyChain)
		if !st.HasData || len(st.Data.Chain) != 1 || st.Err == nil {
			t.Fatalf("\t%s\tShould keep the last good snapshot with the error: %+v", failed, st)
		}
		t.Logf("\t%s\tShould keep the last good snapshot with the error.", success)

		close(heal)

		for upd := next(); upd.Err != nil; upd = next() {
		}

		st = query.Lookup[ledger.ChainSnapshot](store, query.KeyChain)
		if len(st.Data.Chain) != 4 {
			t.Fatalf("\t%s\tShould recover on a later tick without a refresh: %+v", failed, st)
		}
		t.Logf("\t%s\tShould recover on a later tick without a refresh.", success)

		if st.Err != nil {
			t.Fatalf("\t%s\tShould clear the error once recovered: %s", failed, st.Err)
		}
		t.Logf("\t%s\tShould clear the error once recovered.", success)
	}
}

func TestShutdownStalledSubscriber(t *testing.T) {
	store := query.New(query.Config{Interval: 10 * time.Millisecond})

	var mu sync.Mutex
	var calls int
	fetch := func(ctx context.Context) (any, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return snap(1), nil
	}

	store.Register(query.KeyChain, fetch)

	// Nothing reads this channel so the first update blocks the poller.
	updates := make(chan query.Update)
	sub := store.Subscribe(updates)

	t.Log("Given the need to shut down while a subscriber has stopped reading.")
	{
		if err := store.Start(context.Background()); err != nil {
			t.Fatalf("\t%s\tShould be able to start: %s", failed, err)
		}

		waitFor(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return calls > 0
		})

		done := make(chan struct{})
		go func() {
			sub.Unsubscribe()
			store.Shutdown()
			close(done)
		}()

		select {
		case <-done:
			t.Logf("\t%s\tShould shut down once the subscription is dropped.", success)
		case <-time.After(5 * time.Second):
			t.Fatalf("\t%s\tShould shut down once the subscription is dropped.", failed)
		}
	}
}

func TestSuperseded(t *testing.T) {
	store := query.New(query.Config{})

	release := make(chan struct{})
	started := make(chan struct{}, 2)

	var mu sync.Mutex
	var calls int
	fetch := func(ctx context.Context) (any, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		started <- struct{}{}
		if n == 1 {
			<-release
			return snap(1), nil
		}
		return snap(2), nil
	}

	store.Register(query.KeyChain, fetch)

	t.Log("Given the need to drop the result of a superseded fetch.")
	{
		slow := make(chan error, 1)
		go func() {
			slow <- store.Refresh(context.Background(), query.KeyChain)
		}()
		<-started

		st := query.Lookup[ledger.ChainSnapshot](store, query.KeyChain)
		if !st.IsLoading || !st.IsFetching {
			t.Fatalf("\t%s\tShould be loading while the first fetch is in flight: %+v", failed, st)
		}
		t.Logf("\t%s\tShould be loading while the first fetch is in flight.", success)

		if err := store.Refresh(context.Background(), query.KeyChain); err != nil {
			t.Fatalf("\t%s\tShould be able to fetch again: %s", failed, err)
		}

		close(release)
		if err := <-slow; err != nil {
			t.Fatalf("\t%s\tShould complete the slow fetch: %s", failed, err)
		}

		st = query.Lookup[ledger.ChainSnapshot](store, query.KeyChain)
		if len(st.Data.Chain) != 2 {
			t.Logf("\t%s\tgot: %d blocks", failed, len(st.Data.Chain))
			t.Fatalf("\t%s\tShould keep the newer result.", failed)
		}
		if st.IsFetching {
			t.Fatalf("\t%s\tShould not be fetching.", failed)
		}
		t.Logf("\t%s\tShould keep the newer result.", success)
	}
}

func TestInvalidate(t *testing.T) {
	store := query.New(query.Config{Interval: time.Hour})

	var mu sync.Mutex
	var calls int
	fetch := func(ctx context.Context) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return ledger.StatsSnapshot{TotalBlocks: uint64(calls)}, nil
	}

	store.Register(query.KeyStats, fetch)

	t.Log("Given the need to refetch an invalidated query right away.")
	{
		if err := store.Refresh(context.Background(), query.KeyStats); err != nil {
			t.Fatalf("\t%s\tShould be able to fetch: %s", failed, err)
		}

		store.Invalidate(query.KeyStats)

		st := query.Lookup[ledger.StatsSnapshot](store, query.KeyStats)
		if !st.Invalidated || st.Data.TotalBlocks != 1 {
			t.Fatalf("\t%s\tShould be marked invalidated: %+v", failed, st)
		}
		t.Logf("\t%s\tShould be marked invalidated.", success)

		updates := make(chan query.Update, 4)
		sub := store.Subscribe(updates)

		if err := store.Start(context.Background()); err != nil {
			t.Fatalf("\t%s\tShould be able to start: %s", failed, err)
		}

		defer func() {
			sub.Unsubscribe()
			store.Shutdown()
		}()

		if err := store.Register(query.KeyChain, fetch); !errors.Is(err, query.ErrStarted) {
			t.Fatalf("\t%s\tShould not register once started: %v", failed, err)
		}
		t.Logf("\t%s\tShould not register once started.", success)

		select {
		case upd := <-updates:
			if upd.Key != query.KeyStats || upd.Err != nil {
				t.Fatalf("\t%s\tShould get a stats update: %+v", failed, upd)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("\t%s\tShould get an update before the next tick.", failed)
		}
		t.Logf("\t%s\tShould notify subscribers of the fetch.", success)

		waitFor(t, func() bool {
			st := query.Lookup[ledger.StatsSnapshot](store, query.KeyStats)
			return !st.Invalidated && !st.IsFetching && st.Data.TotalBlocks > 1
		})
		t.Logf("\t%s\tShould clear the invalidation with new data.", success)

		for len(updates) > 0 {
			<-updates
		}

		store.Invalidate(query.KeyStats)
		select {
		case <-updates:
		case <-time.After(5 * time.Second):
			t.Fatalf("\t%s\tShould refetch once invalidated.", failed)
		}
		t.Logf("\t%s\tShould refetch once invalidated.", success)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("\t%s\tShould reach the expected state in time.", failed)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLookup(t *testing.T) {
	store := query.New(query.Config{})

	store.Register(query.KeyStats, func(ctx context.Context) (any, error) {
		return ledger.StatsSnapshot{}, nil
	})
	store.Refresh(context.Background(), query.KeyStats)

	if st := query.Lookup[ledger.StatsSnapshot](store, "missing"); !errors.Is(st.Err, query.ErrUnknownKey) {
		t.Fatalf("Should get an unknown key error: %v", st.Err)
	}

	if st := query.Lookup[ledger.ChainSnapshot](store, query.KeyStats); st.HasData || st.Err == nil {
		t.Fatalf("Should report a type mismatch: %+v", st)
	}

	if err := store.Register(query.KeyStats, nil); err == nil {
		t.Fatalf("Should not register a key twice.")
	}

	if err := store.Refresh(context.Background(), "missing"); !errors.Is(err, query.ErrUnknownKey) {
		t.Fatalf("Should not refresh an unknown key: %v", err)
	}
}
