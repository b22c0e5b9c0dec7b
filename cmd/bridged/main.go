// Package main provides bridged, the custodial bridge between the pooled
// ledger and the vault program.
//
// bridged serves the deposit and withdrawal API, signs withdrawal
// authorizations through the threshold signer and lets operators re-sign
// authorizations whose debit was committed without a signature.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sonr-io/vaultbridge/app/commands"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd returns the bridged root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "bridged",
		Short:        "Custodial pool and vault bridge",
		SilenceUsage: true,
	}
	commands.AddConfigFlag(rootCmd)

	rootCmd.AddCommand(
		commands.StartCmd(),
		commands.KeysCmd(),
		commands.TokenCmd(),
		commands.StrandedCmd(),
	)
	return rootCmd
}
