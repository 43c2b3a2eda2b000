package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var txCmd = &cobra.Command{
	Use:   "tx <id>",
	Short: "Show a mined or pending transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tx, err := newGateway().Transaction(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("ID        : %s\n", tx.ID)
		fmt.Printf("Sender    : %s\n", tx.Sender)
		fmt.Printf("Recipient : %s\n", tx.Recipient)
		fmt.Printf("Amount    : %v\n", tx.Amount)
		fmt.Printf("Time      : %s\n", stamp(tx.TimeStamp))
		return nil
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List the transactions waiting to be mined",
	RunE: func(cmd *cobra.Command, args []string) error {
		txs, err := newGateway().Pending(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer w.Flush()

		fmt.Fprintln(w, "ID\tSENDER\tRECIPIENT\tAMOUNT\tTIME")
		for _, tx := range txs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n", tx.ID, tx.Sender, tx.Recipient, tx.Amount, stamp(tx.TimeStamp))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(txCmd)
	rootCmd.AddCommand(pendingCmd)
}
