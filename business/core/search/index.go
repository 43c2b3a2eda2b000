package search

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ardanlabs/ledgerview/foundation/ledger"
)

// DefaultIndexSize is the number of block haystacks the index keeps.
const DefaultIndexSize = 4096

// blockKey identifies a block's content. The hash is included so a block
// served again with different content isn't matched against stale fields.
type blockKey struct {
	index uint64
	hash  string
}

// Index caches the lowercased fields of blocks so repeated searches over a
// growing chain only prepare the blocks it hasn't seen. Results are always
// the same as FilterBlocks.
type Index struct {
	lru *lru.Cache[blockKey, []string]
}

// NewIndex constructs an index holding up to size blocks.
func NewIndex(size int) (*Index, error) {
	if size <= 0 {
		size = DefaultIndexSize
	}

	l, err := lru.New[blockKey, []string](size)
	if err != nil {
		return nil, err
	}

	return &Index{
		lru: l,
	}, nil
}

// Filter returns the blocks matching the query in their original order.
func (idx *Index) Filter(chain []ledger.Block, query string) []ledger.Block {
	if query == "" {
		return chain
	}

	q := strings.ToLower(query)

	blocks := make([]ledger.Block, 0, len(chain))
	for _, blk := range chain {
		if matches(idx.haystack(blk), q) {
			blocks = append(blocks, blk)
		}
	}

	return blocks
}

// Len returns the number of blocks currently cached.
func (idx *Index) Len() int {
	return idx.lru.Len()
}

// Purge removes all cached blocks.
func (idx *Index) Purge() {
	idx.lru.Purge()
}

// haystack returns the cached fields for the block, preparing them on a
// miss. The lru package is safe for concurrent use.
func (idx *Index) haystack(blk ledger.Block) []string {
	key := blockKey{index: blk.Index, hash: blk.Hash}

	if fields, ok := idx.lru.Get(key); ok {
		return fields
	}

	fields := haystack(blk)
	idx.lru.Add(key, fields)

	return fields
}
