package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored sessions",
	}
	sessionsCmd.AddCommand(newSessionsListCommand(ctx))
	sessionsCmd.AddCommand(newSessionsDeleteCommand(ctx))
	return sessionsCmd
}

func newSessionsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored sessions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ctx.openBackend()
			if err != nil {
				return err
			}
			topics, err := b.Topics(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}
			if len(topics) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions")
				return nil
			}

			rows := make([][]string, len(topics))
			for i, t := range topics {
				updated := "-"
				if !t.UpdatedAt.IsZero() {
					updated = t.UpdatedAt.Local().Format(time.DateTime)
				}
				language := t.Language
				if language == "" {
					language = "-"
				}
				rows[i] = []string{t.TopicID, strconv.Itoa(t.Lines), strconv.Itoa(t.History), language, updated}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Topic", "Lines", "History", "Language", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newSessionsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete [topic]",
		Aliases: []string{"rm"},
		Short:   "Delete a stored session and its history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ctx.openBackend()
			if err != nil {
				return err
			}
			if err := b.Remove(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete session %s: %w", args[0], err)
			}
			ctx.logger.Infow("Deleted session", "topic", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
			return nil
		},
	}
}
