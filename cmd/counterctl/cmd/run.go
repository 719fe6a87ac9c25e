package cmd

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Siasom1/orderly-counter/counter"
	"github.com/Siasom1/orderly-counter/metrics"
	"github.com/Siasom1/orderly-counter/params"
	"github.com/Siasom1/orderly-counter/wallet"
)

func newRunCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Send inc() transactions and report the counter delta",
		Long: `Read the Lock counter, send --txs inc() transactions priced at
--fee-multiplier times the latest base fee, wait --settle and read the
counter again. The report is printed as JSON; progress goes to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runCounter(cmd)
		},
	}

	f := cmd.Flags()
	f.Int("txs", params.DefaultTxs, "number of inc() transactions (or COUNTER_TXS)")
	f.Uint64("gas-limit", params.DefaultGasLimit, "gas limit per transaction (or COUNTER_GAS_LIMIT)")
	f.Int64("fee-multiplier", params.DefaultFeeMultiplier, "gas price as a multiple of the base fee (or COUNTER_FEE_MULTIPLIER)")
	f.Duration("settle", params.DefaultSettle, "wait before the final read (or COUNTER_SETTLE)")
	f.String("contract", "", "Lock contract address (or CONTRACT_ADDR)")
	f.String("keyfile", "", "encrypted key file to sign with instead of PRIVATE_KEY (or COUNTER_KEYFILE)")
	f.String("metrics-addr", "", "serve prometheus metrics on this address during the run")

	_ = o.v.BindPFlag("txs", f.Lookup("txs"))
	_ = o.v.BindPFlag("gas_limit", f.Lookup("gas-limit"))
	_ = o.v.BindPFlag("fee_multiplier", f.Lookup("fee-multiplier"))
	_ = o.v.BindPFlag("settle", f.Lookup("settle"))
	_ = o.v.BindPFlag("contract", f.Lookup("contract"))
	_ = o.v.BindPFlag("keyfile", f.Lookup("keyfile"))
	_ = o.v.BindPFlag("metrics_addr", f.Lookup("metrics-addr"))
	_ = o.v.BindEnv("contract", EnvPrefix+"_CONTRACT", params.EnvContract)

	return cmd
}

func (o *rootOptions) settings() (counter.Settings, error) {
	cfg := o.loadConfig()

	s, err := counter.SettingsFromNetwork(cfg.Default(), o.v.GetString("contract"))
	if err != nil && !errors.Is(err, counter.ErrNoAccount) {
		return s, err
	}

	if path := o.v.GetString("keyfile"); path != "" {
		kf, err := wallet.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("read key file: %w", err)
		}
		key, err := wallet.Open(kf, o.v.GetString("passphrase"))
		if err != nil {
			return s, err
		}
		s.PrivateKey = hex.EncodeToString(crypto.FromECDSA(key))
	}

	s.Txs = o.v.GetInt("txs")
	s.GasLimit = o.v.GetUint64("gas_limit")
	s.FeeMultiplier = o.v.GetInt64("fee_multiplier")
	s.Settle = o.v.GetDuration("settle")

	return s, s.Validate()
}

func (o *rootOptions) runCounter(cmd *cobra.Command) error {
	s, err := o.settings()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := o.logger(cmd.ErrOrStderr())
	reg := prometheus.NewRegistry()

	if addr := o.v.GetString("metrics_addr"); addr != "" {
		srv := &http.Server{Addr: addr, Handler: metrics.Handler(reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics server stopped", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	c, err := counter.Dial(ctx, s, logger, metrics.NewCounter(reg))
	if err != nil {
		return err
	}
	defer c.Close()

	logger.Info("connected", "rpc", s.RPCURL, "chain_id", c.ChainID(), "sender", c.Address().Hex(), "contract", s.Contract.Hex())

	report, err := c.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("run complete", "delta", report.Delta(), "sent", report.Sent, "failed", report.Failed)
	return printJSON(cmd.OutOrStdout(), report)
}
