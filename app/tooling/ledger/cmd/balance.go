package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Print the balance of an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bal, err := newGateway().Balance(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s: %v\n", args[0], bal)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}
