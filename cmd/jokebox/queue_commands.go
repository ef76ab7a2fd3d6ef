package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"jokebox/internal/store"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the raw item queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearFailedCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show raw item counts by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				stats, err := env.store.QueueStats(runCtx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				color := shouldColorize(out)
				rows := make([][]string, 0, len(store.AllStatuses()))
				total := 0
				for _, status := range store.AllStatuses() {
					count := stats[status]
					total += count
					label := string(status)
					if status == store.StatusFailed && count > 0 {
						label = colorize(label, ansiRed, color)
					}
					rows = append(rows, []string{label, strconv.Itoa(count)})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"STATUS", "COUNT"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				fmt.Fprintf(out, "Total: %d\n", total)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List raw items, optionally filtered by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []store.Status
			for _, value := range strings.Split(statusFlag, ",") {
				if strings.TrimSpace(value) == "" {
					continue
				}
				status, ok := store.ParseStatus(value)
				if !ok {
					return fmt.Errorf("unknown status %q", value)
				}
				statuses = append(statuses, status)
			}

			return ctx.withEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				items, err := env.store.ListRaw(runCtx, statuses...)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, item := range items {
					detail := item.DropReason
					if item.Status == store.StatusFailed {
						detail = item.LastError
					}
					rows = append(rows, []string{
						strconv.FormatInt(item.ID, 10),
						item.OwnerSourceID,
						string(item.Status),
						strconv.Itoa(item.FailCount),
						truncate(detail, 40),
						truncate(item.Payload, 48),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "SOURCE", "STATUS", "FAILS", "DETAIL", "PAYLOAD"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "Comma-separated status filter (pending, processing, done, dropped, failed)")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Move failed items back to pending",
		Long:  "Retry resets the fail counter on failed items. With no IDs, every failed item is retried.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid item id %q", arg)
				}
				ids = append(ids, id)
			}

			return ctx.withLockedEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				updated, err := env.store.RetryFailed(runCtx, ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retrying %d items\n", updated)
				return nil
			})
		},
	}
}

func newQueueClearFailedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-failed",
		Short: "Remove failed items from the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				removed, err := env.store.ClearFailed(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d failed items\n", removed)
				return nil
			})
		},
	}
}

func truncate(value string, max int) string {
	value = strings.TrimSpace(value)
	if utf8.RuneCountInString(value) <= max {
		return value
	}
	runes := []rune(value)
	return string(runes[:max-1]) + "…"
}
