package dashboard

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ardanlabs/ledgerview/business/core/expansion"
	"github.com/ardanlabs/ledgerview/business/core/query"
	"github.com/ardanlabs/ledgerview/business/core/search"
	"github.com/ardanlabs/ledgerview/business/core/submit"
	"github.com/ardanlabs/ledgerview/foundation/ledger"
)

// View represents a single viewer session.
type View struct {
	ID      string
	Created time.Time

	store     *query.Store
	index     *search.Index
	expansion *expansion.Set
	form      *submit.Form

	lastAccess atomic.Int64
}

// LastAccess returns when the view was last looked up.
func (v *View) LastAccess() time.Time {
	return time.Unix(0, v.lastAccess.Load())
}

func (v *View) touch(now time.Time) {
	v.lastAccess.Store(now.UnixNano())
}

// BlockView is a block along with how it should be displayed.
type BlockView struct {
	ledger.Block
	Expanded bool `json:"expanded"`
}

// Blocks is what the view shows for the chain query.
type Blocks struct {
	Query     string               `json:"query"`
	Blocks    []BlockView          `json:"blocks"`
	Total     int                  `json:"total"`
	Pending   []ledger.Transaction `json:"pending_transactions"`
	IsLoading bool                 `json:"is_loading"`
	Stale     bool                 `json:"stale"`
	Error     string               `json:"error,omitempty"`
	FetchedAt time.Time            `json:"fetched_at,omitzero"`
}

// Blocks returns the blocks of the last chain snapshot that match the
// query, marked with whether this view has them expanded.
func (v *View) Blocks(q string) Blocks {
	chain := query.Lookup[ledger.ChainSnapshot](v.store, query.KeyChain)

	var filtered []ledger.Block
	switch v.index {
	case nil:
		filtered = search.FilterBlocks(chain.Data.Chain, q)
	default:
		filtered = v.index.Filter(chain.Data.Chain, q)
	}

	out := Blocks{
		Query:     q,
		Blocks:    make([]BlockView, len(filtered)),
		Total:     len(chain.Data.Chain),
		Pending:   chain.Data.Pending,
		IsLoading: chain.IsLoading,
		Stale:     chain.Invalidated || (chain.Err != nil && chain.HasData),
		FetchedAt: chain.FetchedAt,
	}

	if chain.Err != nil {
		out.Error = chain.Err.Error()
	}

	for i, blk := range filtered {
		out.Blocks[i] = BlockView{
			Block:    blk,
			Expanded: v.expansion.IsExpanded(blk.Index),
		}
	}

	return out
}

// Toggle flips the expansion of the block with the specified index and
// returns the indexes now expanded.
func (v *View) Toggle(index uint64) []uint64 {
	return v.expansion.Toggle(index)
}

// IsExpanded reports whether the block is expanded in this view.
func (v *View) IsExpanded(index uint64) bool {
	return v.expansion.IsExpanded(index)
}

// Expanded returns the indexes expanded in this view.
func (v *View) Expanded() []uint64 {
	return v.expansion.Copy()
}

// Form returns the state of the view's transaction form.
func (v *View) Form() submit.State {
	return v.form.State()
}

// Edit records changes the user made to the draft.
func (v *View) Edit(draft ledger.Draft) error {
	return v.form.Edit(draft)
}

// Submit sends the draft through the view's transaction form.
func (v *View) Submit(ctx context.Context, draft ledger.Draft) (ledger.Transaction, error) {
	return v.form.Submit(ctx, draft)
}
