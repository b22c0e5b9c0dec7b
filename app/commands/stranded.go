package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/sonr-io/vaultbridge/bridge/handlers"
	"github.com/sonr-io/vaultbridge/bridge/tasks"
)

const (
	flagURL = "url"

	operatorSubject  = "bridged-cli"
	operatorTokenTTL = time.Minute
	requestTimeout   = 15 * time.Second
)

// StrandedCmd returns the stranded authorization command
func StrandedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stranded",
		Short: "Inspect and re-sign stranded withdrawal authorizations",
		Long: `A withdrawal authorization is stranded when the pool debit was committed
but the signing oracle did not produce a signature. The debit is never
reversed; an operator re-signs the record and the principal then fetches
the signature from GET /pool/authorizations/{id}.`,
	}

	cmd.AddCommand(
		strandedListCmd(),
		strandedResignCmd(),
	)
	return cmd
}

func strandedListCmd() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stranded authorizations of a running bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadClientConfig(cmd)
			if err != nil {
				return err
			}
			token, err := handlers.IssueToken([]byte(cfg.JWTSecret), operatorSubject, handlers.RoleOperator, operatorTokenTTL)
			if err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, strings.TrimSuffix(url, "/")+"/admin/stranded", nil)
			if err != nil {
				return err
			}
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := (&http.Client{Timeout: requestTimeout}).Do(req)
			if err != nil {
				return fmt.Errorf("failed to reach bridge: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				var body handlers.ErrorResponse
				_ = json.NewDecoder(resp.Body).Decode(&body)
				return fmt.Errorf("bridge returned %s: %s", resp.Status, body.Error)
			}

			var list handlers.StrandedListResponse
			if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPRINCIPAL\tAMOUNT\tDESTINATION\tATTEMPTS\tCREATED\tLAST ERROR")
			for _, r := range list.Stranded {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\t%s\n",
					r.ID, r.Principal, r.Amount, r.Destination, r.Attempts,
					r.Created().Format(time.RFC3339), r.LastError)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&url, flagURL, "http://127.0.0.1:8090", "Base URL of the bridge API")
	return cmd
}

func strandedResignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resign [id]",
		Short: "Queue the re-signing of a stranded authorization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadClientConfig(cmd)
			if err != nil {
				return err
			}

			client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
			defer client.Close()

			info, err := tasks.NewNotifier(client).RequestResign(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to queue re-sign: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued %s on %s\n", info.ID, info.Queue)
			return nil
		},
	}
}
