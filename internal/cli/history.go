package cli

import (
	"fmt"
	"time"

	"github.com/arthur-debert/tidyvault/pkg/journal"
	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var (
		query journal.Query
		prune time.Duration
	)

	cmd := &cobra.Command{
		Use:     "history",
		Short:   MsgHistoryShort,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			renderer, err := a.renderer()
			if err != nil {
				return err
			}

			j, err := a.openJournal()
			if err != nil {
				return err
			}
			if j == nil {
				return renderer.RenderMessage(MsgJournalOff)
			}

			if prune > 0 {
				n, err := j.Prune(cmd.Context(), time.Now().Add(-prune))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), MsgHistoryPruned, n, prune)
				return err
			}

			if query.RuleID != "" {
				// Accept rule names as well as IDs
				if settings, err := a.store.Load(); err == nil {
					if rule, ok := settings.FindRule(query.RuleID); ok {
						query.RuleID = rule.ID
					}
				}
			}

			history, err := j.Recent(cmd.Context(), query)
			if err != nil {
				return err
			}
			return renderer.RenderHistory(history)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&query.RuleID, "rule", "", "Only show invocations of this rule (ID or name)")
	flags.IntVarP(&query.Limit, "limit", "n", 20, "Number of invocations to show")
	flags.DurationVar(&prune, "prune-older-than", 0, "Delete invocations older than this instead of listing")
	return cmd
}
