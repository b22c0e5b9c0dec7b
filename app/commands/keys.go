package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/spf13/cobra"

	"cosmossdk.io/log"

	"github.com/sonr-io/vaultbridge/crypto/pda"
	"github.com/sonr-io/vaultbridge/oracle"
	vaulttypes "github.com/sonr-io/vaultbridge/x/vault/types"
)

// KeysCmd returns the key inspection command
func KeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Inspect the bridge signing key and vault addresses",
	}

	cmd.AddCommand(
		keysAddressCmd(),
		keysVaultCmd(),
	)

	return cmd
}

// keysAddressCmd prints the address the configured signer signs as
func keysAddressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Show the signing address of the configured key profile",
		Long: `Show the public key, base58 signing address and did:key of the key
selected by the configured profile.

The vault program must be configured with this public key
(BRIDGE_AUTHORIZATION_PUBLIC_KEY) to accept the bridge's authorizations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadClientConfig(cmd)
			if err != nil {
				return err
			}

			keyID, err := oracle.KeyIDForProfile(cfg.KeyProfile)
			if err != nil {
				return err
			}

			system := actor.NewActorSystem()
			pid := oracle.SpawnSigner(system, oracle.SignerConfig{
				MasterSecret: []byte(cfg.SignerSecret),
				Keys:         []oracle.KeyID{keyID},
			})
			defer system.Root.Stop(pid)

			client := oracle.NewClient(system, pid, log.NewNopLogger(), oracle.ClientConfig{
				RequestTimeout: cfg.OracleTimeout,
			})
			reply, err := client.PublicKey(cmd.Context(), keyID)
			if err != nil {
				return fmt.Errorf("failed to fetch public key: %w", err)
			}
			did, err := oracle.DIDKey(reply.PublicKey)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Key ID:      %s\n", keyID)
			fmt.Fprintf(out, "Public Key:  %s\n", hex.EncodeToString(reply.PublicKey))
			fmt.Fprintf(out, "Address:     %s\n", oracle.DeriveAddress(reply.PublicKey))
			fmt.Fprintf(out, "DID:         %s\n", did)
			return nil
		},
	}
}

// keysVaultCmd derives the vault addresses of an owner and asset
func keysVaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vault [owner] [asset]",
		Short: "Derive the vault, authority and token account addresses",
		Args:  cobra.ExactArgs(2),
		Example: `  bridged keys vault 4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd)
			if err != nil {
				return err
			}
			program, err := pda.ParseAddress(cfg.VaultProgramID)
			if err != nil {
				return fmt.Errorf("vault program id: %w", err)
			}
			owner, err := pda.ParseAddress(args[0])
			if err != nil {
				return fmt.Errorf("owner: %w", err)
			}
			asset, err := pda.ParseAddress(args[1])
			if err != nil {
				return fmt.Errorf("asset: %w", err)
			}

			addrs, err := vaulttypes.DeriveAddresses(program, owner, asset)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Program:        %s\n", program)
			fmt.Fprintf(out, "Vault:          %s (bump %d)\n", addrs.Vault, addrs.VaultBump)
			fmt.Fprintf(out, "Authority:      %s (bump %d)\n", addrs.Authority, addrs.AuthorityBump)
			fmt.Fprintf(out, "Token Account:  %s (bump %d)\n", addrs.TokenAccount, addrs.TokenAccountBump)
			return nil
		},
	}
}
