package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Siasom1/orderly-counter/config"
	"github.com/Siasom1/orderly-counter/log"
)

// Version is set at build time.
var Version = "dev"

// EnvPrefix prefixes every viper-bound environment override.
const EnvPrefix = "COUNTER"

type rootOptions struct {
	v        *viper.Viper
	envFiles []string
}

// NewRootCmd builds a fresh command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}
	opts.v.SetEnvPrefix(EnvPrefix)
	opts.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "counterctl",
		Short: "counterctl - drive the Lock counter contract on the orderly L2",
		Long: `counterctl sends inc() transactions to a deployed Lock contract and
reports how far its counter moved.

Configuration (in order of priority):
  1. Command-line flags (--txs, --contract, ...)
  2. Environment variables (COUNTER_TXS, COUNTER_GAS_LIMIT, CONTRACT_ADDR, ...)
  3. .env file in the working directory (L2_RPC_URL, PRIVATE_KEY, CONTRACT_ADDR)

Get started:
  $ counterctl config show    # Show the loaded network entry
  $ counterctl run            # Send 10 inc() transactions`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "env files to load (default .env)")
	root.PersistentFlags().String("log-level", "info", "log level: debug/info/warn/error (or COUNTER_LOG_LEVEL)")
	root.PersistentFlags().String("passphrase", "", "key file passphrase (or COUNTER_PASSPHRASE)")
	_ = opts.v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))
	_ = opts.v.BindPFlag("passphrase", root.PersistentFlags().Lookup("passphrase"))

	root.AddCommand(
		newVersionCmd(),
		newConfigCmd(opts),
		newRunCmd(opts),
		newWalletCmd(opts),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "counterctl version %s\n", Version)
		},
	}
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func (o *rootOptions) loadConfig() *config.Config {
	return config.Load(o.envFiles...)
}

func (o *rootOptions) logger(w io.Writer) *log.Logger {
	return log.NewLoggerTo(w, o.v.GetString("log_level"))
}

// printJSON outputs data as formatted JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
