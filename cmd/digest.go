package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxpulse/internal/gmail"
	"github.com/teemow/inboxpulse/internal/google"
	"github.com/teemow/inboxpulse/internal/insights"
)

func newDigestCmd() *cobra.Command {
	var (
		account          string
		importantDomains []string
		asJSON           bool
	)

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Print a weekly inbox digest",
		Long: `Fetch the last seven days of mail for the given account and print a
digest: totals, unread and high-importance counts, a per-day breakdown
and the top unread messages ranked by importance.

Requires a saved OAuth token; run the serve command and authenticate
via the google_get_auth_url tool first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if id, secret := os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"); id != "" && secret != "" {
				google.SetClientCredentials(id, secret)
			}
			if err := google.MigrateDefaultToken(); err != nil {
				return fmt.Errorf("failed to migrate legacy token file: %w", err)
			}

			ctx := context.Background()
			client, err := gmail.NewClientForAccount(ctx, account)
			if err != nil {
				return fmt.Errorf("failed to create Gmail client for account %s: %w", account, err)
			}

			scorer := insights.NewScorer(buildScoringConfig(importantDomains))
			engine := insights.NewEngine(client, scorer)

			weekly, err := engine.WeeklyInsights(ctx)
			if err != nil {
				return fmt.Errorf("failed to compute weekly insights: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(weekly)
			}

			printDigest(cmd, account, weekly)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Google account name to use (default: 'default')")
	cmd.Flags().StringSliceVar(&importantDomains, "important-domains", nil, "Sender domains that earn an importance bonus (comma-separated). Can also use IMPORTANT_SENDER_DOMAINS env var.")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the digest as JSON")

	return cmd
}

func printDigest(cmd *cobra.Command, account string, weekly *insights.WeeklyInsights) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Weekly inbox digest for account %q\n\n", account)
	fmt.Fprintf(out, "Messages:        %d\n", weekly.TotalCount)
	fmt.Fprintf(out, "Unread:          %d\n", weekly.UnreadCount)
	fmt.Fprintf(out, "High importance: %d\n", weekly.HighImportanceCount)

	if len(weekly.DailyBreakdown) > 0 {
		fmt.Fprintf(out, "\nPer day:\n")
		for _, day := range weekly.DailyBreakdown {
			fmt.Fprintf(out, "  %s  total=%-3d unread=%-3d high=%d\n",
				day.Date, day.TotalCount, day.UnreadCount, day.HighImportanceCount)
		}
	}

	if len(weekly.TopUnread) > 0 {
		fmt.Fprintf(out, "\nTop unread:\n")
		for _, msg := range weekly.TopUnread {
			fmt.Fprintf(out, "  [%2d] %s: %s\n", msg.Score, msg.Sender, msg.Subject)
		}
	}
}
