package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"jokebox/internal/importer"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var (
		sourceID string
		format   string
		language string
	)

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Enqueue pasted or file-based text as offline candidate items",
		Long: `Import reads text from a file argument or from stdin and enqueues the
extracted entries for processing. Supported formats: txt, json, csv, html.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedFormat, ok := importer.ParseFormat(format)
			if !ok {
				return fmt.Errorf("unsupported format %q (expected txt, json, csv, or html)", format)
			}

			var text []byte
			var err error
			if len(args) == 1 {
				text, err = os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read import file: %w", err)
				}
			} else {
				text, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
			}

			return ctx.withLockedEnv(cmd, func(runCtx context.Context, env *cliEnv) error {
				imp := importer.New(env.store, env.logger)
				count, err := imp.ImportText(runCtx, sourceID, string(text), language, parsedFormat)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d items from source %s\n", count, sourceID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sourceID, "source", "", "Offline source ID that owns the imported items")
	cmd.Flags().StringVar(&format, "format", "txt", "Input format: txt, json, csv, or html")
	cmd.Flags().StringVar(&language, "language", "", "Language hint for the imported items")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}
