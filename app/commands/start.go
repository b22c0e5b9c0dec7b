package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cosmossdk.io/log"

	"github.com/sonr-io/vaultbridge/bridge"
)

// StartCmd returns the command running the bridge service.
func StartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the bridge HTTP API and operator task queue",
		Long: `Run the bridge service.

The service serves the pool and vault HTTP API, processes stranded
authorization tasks from Redis and stops on SIGINT or SIGTERM.`,
		Example: `  # Run with a local signer and an in-memory store
  BRIDGE_STORE_BACKEND=memdb bridged start

  # Run with a configuration file
  bridged start --config /etc/vaultbridge/bridge.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd)
			if err != nil {
				return err
			}
			logger := log.NewLogger(os.Stderr)
			cfg.ApplyLocalDefaults(logger)

			service, err := bridge.NewBridgeService(cfg, logger)
			if err != nil {
				return err
			}
			defer service.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return service.Run(ctx)
		},
	}
}
