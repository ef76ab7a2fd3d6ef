package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jokebox/internal/fetch"
	"jokebox/internal/sources"
	"jokebox/internal/store"
)

func newSourcesCommand(ctx *commandContext) *cobra.Command {
	sourcesCmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage content sources",
	}

	sourcesCmd.AddCommand(newSourcesListCommand(ctx))
	sourcesCmd.AddCommand(newSourcesBootstrapCommand(ctx))
	sourcesCmd.AddCommand(newSourcesAddCommand(ctx))
	sourcesCmd.AddCommand(newSourcesEnableCommand(ctx, true))
	sourcesCmd.AddCommand(newSourcesEnableCommand(ctx, false))
	sourcesCmd.AddCommand(newSourcesRemoveCommand(ctx))
	sourcesCmd.AddCommand(newSourcesPurgeCommand(ctx))

	return sourcesCmd
}

func newSourcesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				configured, err := env.store.ListSources(runCtx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(configured) == 0 {
					fmt.Fprintln(out, "No sources configured; run `jokebox sources bootstrap` to load the builtin set")
					return nil
				}

				rows := make([][]string, 0, len(configured))
				for _, source := range configured {
					extraction := sources.ExtractionFor(source)
					rows = append(rows, []string{
						source.ID,
						string(source.Kind),
						source.Name,
						yesNo(source.Enabled),
						strings.Join(source.SupportedLanguages, ","),
						truncate(extraction.URLTemplate, 48),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "KIND", "NAME", "ENABLED", "LANGUAGES", "URL"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newSourcesBootstrapCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Load or refresh the builtin source manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				count, err := sources.Bootstrap(runCtx, env.store)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d builtin sources\n", count)
				return nil
			})
		},
	}
}

func newSourcesAddCommand(ctx *commandContext) *cobra.Command {
	var (
		name         string
		urlTemplate  string
		languages    []string
		offline      bool
		itemsPath    string
		contentPath  string
		languagePath string
		urlPath      string
		test         bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a user source",
		Long: `Add registers a user source. Online sources need a URL template with
{{lang}} and {{limit}} placeholders; offline sources only receive items
through the import command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				var source *store.Source
				var err error
				if offline {
					source, err = sources.NewUserOffline(name)
				} else {
					source, err = sources.NewUserOnline(name, urlTemplate, languages, sources.Extraction{
						ItemsPath:     itemsPath,
						ContentPath:   contentPath,
						LanguagePath:  languagePath,
						SourceURLPath: urlPath,
					})
				}
				if err != nil {
					return err
				}

				if test && !offline {
					fetcher := fetch.New(env.cfg, env.store, env.logger)
					if err := fetcher.Probe(runCtx, source, 1); err != nil {
						return fmt.Errorf("source probe failed: %w", err)
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Probe succeeded")
				}

				if err := env.store.UpsertSource(runCtx, source); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added source %s (%s)\n", source.ID, source.Kind)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name for the source")
	cmd.Flags().StringVar(&urlTemplate, "url", "", "URL template with {{lang}} and {{limit}} placeholders")
	cmd.Flags().StringSliceVar(&languages, "language", nil, "Languages the source supports (repeatable)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Register an offline source fed by the import command")
	cmd.Flags().StringVar(&itemsPath, "items-path", "", "Dotted path to the response item array")
	cmd.Flags().StringVar(&contentPath, "content-path", "", "Dotted path to the content field of each item")
	cmd.Flags().StringVar(&languagePath, "language-path", "", "Dotted path to the language field of each item")
	cmd.Flags().StringVar(&urlPath, "url-path", "", "Dotted path to the source URL field of each item")
	cmd.Flags().BoolVar(&test, "test", false, "Probe the source before saving it")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newSourcesEnableCommand(ctx *commandContext, enable bool) *cobra.Command {
	use, short := "enable <id>", "Enable a source"
	if !enable {
		use, short = "disable <id>", "Disable a source"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				found, err := env.store.SetSourceEnabled(runCtx, args[0], enable)
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("source %s not found", args[0])
				}
				state := "enabled"
				if !enable {
					state = "disabled"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Source %s %s\n", args[0], state)
				return nil
			})
		},
	}
}

func newSourcesPurgeCommand(ctx *commandContext) *cobra.Command {
	var kinds []string

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove sources of the given kinds along with everything they own",
		Long: `Purge deletes sources of the given kinds and cascades to their raw queue
items and stored jokes in one transaction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := make([]store.Kind, 0, len(kinds))
			for _, value := range kinds {
				kind, ok := store.ParseKind(value)
				if !ok {
					return fmt.Errorf("unknown source kind %q", value)
				}
				parsed = append(parsed, kind)
			}
			if len(parsed) == 0 {
				return fmt.Errorf("at least one --kind is required")
			}

			return ctx.withLockedEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				deleted, err := env.store.DeleteByKinds(runCtx, parsed...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d stored jokes\n", deleted)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "Source kind to purge: builtin, user_online, or user_offline (repeatable)")
	return cmd
}

func newSourcesRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a source configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				found, err := env.store.DeleteSource(runCtx, args[0])
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("source %s not found", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed source %s\n", args[0])
				return nil
			})
		},
	}
}
