// Package cmd contains the ledger command line tool.
package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ardanlabs/ledgerview/foundation/gateway"
	"github.com/ardanlabs/ledgerview/foundation/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to the config file (default ./ledger.yaml).")
	rootCmd.PersistentFlags().StringP("url", "u", "http://localhost:8000", "Url of the ledger gateway.")
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Second, "Timeout for each request to the gateway.")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log the processing of queries and submissions.")

	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

var rootCmd = &cobra.Command{
	Use:           "ledger",
	Short:         "Browse and submit to the ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

// loadConfig layers the optional config file and LEDGER_ prefixed
// environment variables under the command line flags.
func loadConfig() error {
	switch cfgFile {
	case "":
		viper.AddConfigPath(".")
		viper.SetConfigName("ledger")
		viper.SetConfigType("yaml")
	default:
		viper.SetConfigFile(cfgFile)
	}

	viper.SetEnvPrefix("ledger")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	return nil
}

// newGateway constructs the gateway client from the resolved settings.
func newGateway() *gateway.Client {
	return gateway.New(viper.GetString("url"), &http.Client{Timeout: viper.GetDuration("timeout")})
}

// newEvHandler returns an event handler that logs when verbose is set.
func newEvHandler() (func(v string, args ...any), func(), error) {
	if !viper.GetBool("verbose") {
		return nil, func() {}, nil
	}

	log, err := logger.New("LEDGER", "stderr")
	if err != nil {
		return nil, nil, err
	}

	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}

	return ev, func() { log.Sync() }, nil
}
