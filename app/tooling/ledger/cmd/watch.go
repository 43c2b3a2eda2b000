package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/ledgerview/business/core/query"
	"github.com/ardanlabs/ledgerview/foundation/ledger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the ledger and print the chain statistics as they change",
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, sync, err := newEvHandler()
		if err != nil {
			return err
		}
		defer sync()

		store := query.New(query.Config{
			Interval:  watchInterval,
			Timeout:   viper.GetDuration("timeout"),
			EvHandler: ev,
		})

		if err := query.RegisterLedger(store, newGateway()); err != nil {
			return err
		}

		updates := make(chan query.Update, 16)
		sub := store.Subscribe(updates)

		if err := store.Start(cmd.Context()); err != nil {
			sub.Unsubscribe()
			return err
		}

		// The subscription is dropped first so a poller blocked on sending
		// an update can finish.
		defer func() {
			sub.Unsubscribe()
			store.Shutdown()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

		for {
			select {
			case upd := <-updates:
				printUpdate(store, upd)

			case <-shutdown:
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", query.DefaultInterval, "How often to poll the ledger.")
}

func printUpdate(store *query.Store, upd query.Update) {
	at := upd.At.Format(time.TimeOnly)

	if upd.Err != nil {
		fmt.Printf("%s %-12s ERROR: %s\n", at, upd.Key, upd.Err)
		return
	}

	switch upd.Key {
	case query.KeyStats:
		st := query.Lookup[ledger.StatsSnapshot](store, query.KeyStats)
		fmt.Printf("%s %-12s blocks[%d] txs[%d] pending[%d] difficulty[%d]\n", at, upd.Key, st.Data.TotalBlocks, st.Data.TotalTransactions, st.Data.Pending, st.Data.Difficulty)

	case query.KeyChain:
		st := query.Lookup[ledger.ChainSnapshot](store, query.KeyChain)
		latest, ok := st.Data.LatestBlock()
		if !ok {
			fmt.Printf("%s %-12s empty\n", at, upd.Key)
			return
		}
		fmt.Printf("%s %-12s tip[%d] hash[%s]\n", at, upd.Key, latest.Index, short(latest.Hash))
	}
}
