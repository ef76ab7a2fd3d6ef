package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"jokebox/internal/fetch"
	"jokebox/internal/process"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Pull candidate items from every enabled online source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				fetcher := fetch.New(env.cfg, env.store, env.logger)
				count, err := fetcher.FetchOnce(runCtx, limit)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d candidate items\n", count)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum items to request per source (0 uses the configured default)")
	return cmd
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Run one processing batch over the raw queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				processor := process.New(env.cfg, env.store, env.logger)
				accepted, err := processor.ProcessBatch(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Accepted %d items\n", accepted)
				return nil
			})
		},
	}
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Fetch from every enabled source, then drain the raw queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				out := cmd.OutOrStdout()

				fetcher := fetch.New(env.cfg, env.store, env.logger)
				fetched, err := fetcher.FetchOnce(runCtx, limit)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Fetched %d candidate items\n", fetched)

				processor := process.New(env.cfg, env.store, env.logger)
				accepted := 0
				for {
					batch, err := processor.ProcessBatch(runCtx)
					if err != nil {
						return err
					}
					accepted += batch
					pending, err := env.store.ListPending(runCtx, 1)
					if err != nil {
						return err
					}
					if len(pending) == 0 {
						break
					}
				}
				fmt.Fprintf(out, "Accepted %d items\n", accepted)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum items to request per source (0 uses the configured default)")
	return cmd
}
