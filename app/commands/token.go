package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sonr-io/vaultbridge/bridge/handlers"
)

const (
	flagRole = "role"
	flagTTL  = "ttl"
)

// TokenCmd returns the API token command
func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage bridge API tokens",
	}
	cmd.AddCommand(tokenIssueCmd())
	return cmd
}

func tokenIssueCmd() *cobra.Command {
	var (
		role string
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue [subject]",
		Short: "Issue an API token for subject",
		Long: `Issue an HS256 API token signed with the configured JWT secret.

The subject is the caller's pool principal and vault owner address. Operator
tokens may list and re-sign stranded authorizations.`,
		Example: `  bridged token issue 4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T
  bridged token issue ops --role operator --ttl 1h`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != handlers.RoleUser && role != handlers.RoleOperator {
				return fmt.Errorf("unknown role %q: expected %s or %s", role, handlers.RoleUser, handlers.RoleOperator)
			}
			cfg, err := loadClientConfig(cmd)
			if err != nil {
				return err
			}

			token, err := handlers.IssueToken([]byte(cfg.JWTSecret), args[0], role, ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, flagRole, handlers.RoleUser, "Token role (user or operator)")
	cmd.Flags().DurationVar(&ttl, flagTTL, 24*time.Hour, "Token lifetime")
	return cmd
}
