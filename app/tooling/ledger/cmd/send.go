package cmd

import (
	"fmt"

	"github.com/ardanlabs/ledgerview/business/core/submit"
	"github.com/ardanlabs/ledgerview/foundation/ledger"
	"github.com/spf13/cobra"
)

var (
	sendFrom   string
	sendTo     string
	sendAmount string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Submit a transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, sync, err := newEvHandler()
		if err != nil {
			return err
		}
		defer sync()

		form := submit.New(submit.Config{
			Gateway:   newGateway(),
			EvHandler: ev,
		})

		draft := ledger.Draft{
			Sender:    sendFrom,
			Recipient: sendTo,
			Amount:    sendAmount,
		}

		tx, err := form.Submit(cmd.Context(), draft)
		if err != nil {
			return err
		}

		fmt.Printf("Transaction %s submitted: %s -> %s %v\n", tx.ID, tx.Sender, tx.Recipient, tx.Amount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sendFrom, "from", "f", "", "Address sending the amount.")
	sendCmd.Flags().StringVarP(&sendTo, "to", "t", "", "Address receiving the amount.")
	sendCmd.Flags().StringVarP(&sendAmount, "amount", "a", "", "Amount to send.")
}
