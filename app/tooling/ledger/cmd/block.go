package cmd

import (
	"fmt"
	"strconv"

	"github.com/ardanlabs/ledgerview/business/core/expansion"
	"github.com/ardanlabs/ledgerview/foundation/ledger"
	"github.com/spf13/cobra"
)

var blockCmd = &cobra.Command{
	Use:   "block <index>",
	Short: "Show a single block with its transactions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid block index %q: %w", args[0], err)
		}

		blk, err := newGateway().Block(cmd.Context(), index)
		if err != nil {
			return err
		}

		exp := expansion.New()
		exp.Toggle(blk.Index)
		printBlocks([]ledger.Block{blk}, exp)

		fmt.Printf("\nprevious hash: %s\nhash:          %s\n", blk.PrevHash, blk.Hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(blockCmd)
}
