package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the chain statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := newGateway().Stats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Blocks       : %d\n", st.TotalBlocks)
		fmt.Printf("Transactions : %d\n", st.TotalTransactions)
		fmt.Printf("Pending      : %d\n", st.Pending)
		fmt.Printf("Difficulty   : %d\n", st.Difficulty)
		fmt.Printf("Reward       : %v\n", st.MiningReward)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
