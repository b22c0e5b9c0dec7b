// Package commands contains the subcommands of the bridged command
package commands

import (
	"github.com/spf13/cobra"

	"cosmossdk.io/log"

	"github.com/sonr-io/vaultbridge/bridge"
)

// FlagConfig names the optional configuration file flag.
const FlagConfig = "config"

// AddConfigFlag registers the configuration file flag on cmd.
func AddConfigFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().String(FlagConfig, "", "Path to a bridge configuration file (BRIDGE_* environment variables override it)")
}

// LoadConfig reads the configuration named by the command's flags.
func LoadConfig(cmd *cobra.Command) (*bridge.Config, error) {
	path, err := cmd.Flags().GetString(FlagConfig)
	if err != nil {
		return nil, err
	}
	v, err := bridge.NewViper(path)
	if err != nil {
		return nil, err
	}
	return bridge.LoadConfig(v)
}

// loadClientConfig loads the configuration of commands that talk to a
// running bridge. Local profile secrets fall back to their defaults silently.
func loadClientConfig(cmd *cobra.Command) (*bridge.Config, error) {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	cfg.ApplyLocalDefaults(log.NewNopLogger())
	return cfg, nil
}
