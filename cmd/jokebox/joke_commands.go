package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"jokebox/internal/language"
	"jokebox/internal/store"
)

func newJokeCommand(ctx *commandContext) *cobra.Command {
	var (
		random     bool
		markPlayed bool
	)

	cmd := &cobra.Command{
		Use:   "joke",
		Short: "Print a joke from the canonical store",
		Long: `Joke prints the next unplayed item for the configured age tier and
language. With --random a uniformly random item is picked instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				tier := env.cfg.Content.AgeTier
				lang := env.cfg.Content.Language

				var joke *store.Joke
				var err error
				if random {
					joke, err = env.store.PickRandom(runCtx, tier, lang)
				} else {
					joke, err = env.store.PickNextUnplayed(runCtx, tier, lang)
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if joke == nil {
					if random {
						fmt.Fprintln(out, "No jokes stored yet; run `jokebox update` first")
					} else {
						fmt.Fprintln(out, "Everything has been played; run `jokebox joke reset-played` to start over")
					}
					return nil
				}

				fmt.Fprintln(out, joke.Content)
				if joke.SourceURL != "" {
					fmt.Fprintf(out, "(%s)\n", joke.SourceURL)
				}

				if markPlayed {
					if err := env.store.MarkPlayed(runCtx, joke.ID); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&random, "random", false, "Pick a random item instead of the next unplayed one")
	cmd.Flags().BoolVar(&markPlayed, "mark-played", false, "Record the printed item in the played ledger")

	cmd.AddCommand(newJokeResetPlayedCommand(ctx))
	return cmd
}

func newJokeResetPlayedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-played",
		Short: "Clear the played ledger so rotation starts over",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				cleared, err := env.store.ResetPlayed(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d played records\n", cleared)
				return nil
			})
		},
	}
}

func newFavoritesCommand(ctx *commandContext) *cobra.Command {
	favoritesCmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage favorite jokes",
	}

	favoritesCmd.AddCommand(&cobra.Command{
		Use:   "add <id>",
		Short: "Mark a joke as a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				joke, err := env.store.GetJoke(runCtx, args[0])
				if err != nil {
					return err
				}
				if joke == nil {
					return fmt.Errorf("joke %s not found", args[0])
				}
				if err := env.store.AddFavorite(runCtx, joke.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Favorited %s\n", joke.ID)
				return nil
			})
		},
	})

	favoritesCmd.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Unmark a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				removed, err := env.store.RemoveFavorite(runCtx, args[0])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("joke %s is not a favorite", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Unfavorited %s\n", args[0])
				return nil
			})
		},
	})

	favoritesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List favorite jokes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				favorites, err := env.store.ListFavorites(runCtx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(favorites) == 0 {
					fmt.Fprintln(out, "No favorites yet")
					return nil
				}
				rows := make([][]string, 0, len(favorites))
				for _, joke := range favorites {
					rows = append(rows, []string{joke.ID, joke.Language, truncate(joke.Content, 64)})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "LANGUAGE", "CONTENT"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	})

	return favoritesCmd
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show pipeline and store counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				tier := env.cfg.Content.AgeTier
				lang := env.cfg.Content.Language
				out := cmd.OutOrStdout()

				total, err := env.store.JokeCount(runCtx, tier, lang)
				if err != nil {
					return err
				}
				unplayed, err := env.store.UnplayedCount(runCtx, tier, lang)
				if err != nil {
					return err
				}
				stats, err := env.store.QueueStats(runCtx)
				if err != nil {
					return err
				}
				queued := stats[store.StatusPending] + stats[store.StatusProcessing]

				fmt.Fprintf(out, "Jokes (%s, tier %d): %d total, %d unplayed\n", language.DisplayName(lang), tier, total, unplayed)
				fmt.Fprintf(out, "Queue: %d waiting, %d failed\n", queued, stats[store.StatusFailed])

				if at, ok, err := env.store.LastFetchAt(runCtx); err != nil {
					return err
				} else if ok {
					fmt.Fprintf(out, "Last fetch: %s\n", at.Local().Format("2006-01-02 15:04:05"))
				} else {
					fmt.Fprintln(out, "Last fetch: never")
				}
				return nil
			})
		},
	}
}
