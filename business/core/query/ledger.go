package query

import (
	"context"
	"fmt"

	"github.com/ardanlabs/ledgerview/foundation/ledger"
)

// Source represents behavior for reading the ledger snapshots that back
// the well known keys.
type Source interface {
	Chain(ctx context.Context) (ledger.ChainSnapshot, error)
	Stats(ctx context.Context) (ledger.StatsSnapshot, error)
}

// RegisterLedger registers the chain and stats queries against the source.
func RegisterLedger(s *Store, src Source) error {
	chain := func(ctx context.Context) (any, error) {
		return src.Chain(ctx)
	}
	if err := s.Register(KeyChain, chain); err != nil {
		return fmt.Errorf("register %s: %w", KeyChain, err)
	}

	stats := func(ctx context.Context) (any, error) {
		return src.Stats(ctx)
	}
	if err := s.Register(KeyStats, stats); err != nil {
		return fmt.Errorf("register %s: %w", KeyStats, err)
	}

	return nil
}
