package cmd

import (
	"encoding/json"
	"os"

	"github.com/ardanlabs/ledgerview/business/core/analytics"
	"github.com/spf13/cobra"
)

var analyticsCmd = &cobra.Command{
	Use:       "analytics <transactions|network|addresses>",
	Short:     "Print a dataset computed from the chain",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(analytics.KindTransactions), string(analytics.KindNetwork), string(analytics.KindAddresses)},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := analytics.ParseKind(args[0])
		if err != nil {
			return err
		}

		snap, err := newGateway().Chain(cmd.Context())
		if err != nil {
			return err
		}

		ds, err := analytics.Build(kind, snap)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ds)
	},
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
}
