// Package search derives the set of blocks matching a free text query. A
// block matches when its index, its hash, or the sender or recipient of
// any of its transactions contains the query, ignoring case.
package search

import (
	"strings"

	"github.com/ardanlabs/ledgerview/foundation/ledger"
)

// FilterBlocks returns the blocks matching the query in their original
// order. An empty query returns the chain as provided.
func FilterBlocks(chain []ledger.Block, query string) []ledger.Block {
	if query == "" {
		return chain
	}

	q := strings.ToLower(query)

	blocks := make([]ledger.Block, 0, len(chain))
	for _, blk := range chain {
		if matches(haystack(blk), q) {
			blocks = append(blocks, blk)
		}
	}

	return blocks
}

// =============================================================================

// haystack returns the lowercased fields of the block a query is matched
// against.
func haystack(blk ledger.Block) []string {
	fields := make([]string, 0, 2+2*len(blk.Transactions))
	fields = append(fields, blk.IndexString(), strings.ToLower(blk.Hash))

	for _, tx := range blk.Transactions {
		fields = append(fields, strings.ToLower(tx.Sender), strings.ToLower(tx.Recipient))
	}

	return fields
}

// matches performs a substring match of the lowercased query against each
// field. Fields are checked separately so a match can't span two fields.
func matches(fields []string, q string) bool {
	for _, field := range fields {
		if strings.Contains(field, q) {
			return true
		}
	}
	return false
}
