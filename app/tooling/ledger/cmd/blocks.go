package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ardanlabs/ledgerview/business/core/expansion"
	"github.com/ardanlabs/ledgerview/business/core/search"
	"github.com/ardanlabs/ledgerview/foundation/ledger"
	"github.com/spf13/cobra"
)

var (
	blocksQuery  string
	blocksExpand []uint
)

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "List the blocks matching a search",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := newGateway().Chain(cmd.Context())
		if err != nil {
			return err
		}

		exp := expandAll(blocksExpand)

		blocks := search.FilterBlocks(snap.Chain, blocksQuery)
		printBlocks(blocks, exp)
		fmt.Printf("\n%d of %d blocks, %d pending\n", len(blocks), len(snap.Chain), len(snap.Pending))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(blocksCmd)
	blocksCmd.Flags().StringVarP(&blocksQuery, "query", "q", "", "Match block index, hash, sender or recipient.")
	blocksCmd.Flags().UintSliceVarP(&blocksExpand, "expand", "x", nil, "Block indexes to show transactions for.")
}

// expandAll returns a set with every listed index expanded. An index
// listed more than once stays expanded.
func expandAll(indexes []uint) *expansion.Set {
	exp := expansion.New()
	for _, index := range indexes {
		if !exp.IsExpanded(uint64(index)) {
			exp.Toggle(uint64(index))
		}
	}
	return exp
}

func printBlocks(blocks []ledger.Block, exp *expansion.Set) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "INDEX\tHASH\tNONCE\tTXS\tTIME")
	for _, blk := range blocks {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n", blk.Index, short(blk.Hash), blk.Nonce, len(blk.Transactions), stamp(blk.TimeStamp))

		if !exp.IsExpanded(blk.Index) {
			continue
		}
		for _, tx := range blk.Transactions {
			fmt.Fprintf(w, "\t  %s\t%s -> %s\t%v\t%s\n", short(tx.ID), tx.Sender, tx.Recipient, tx.Amount, stamp(tx.TimeStamp))
		}
	}
}

func short(s string) string {
	if len(s) <= 16 {
		return s
	}
	return s[:16]
}

func stamp(ts float64) string {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC().Format(time.RFC3339)
}
