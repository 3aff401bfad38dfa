package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/longkey1/kitlend/internal/lending"
)

type textOptions struct {
	format string
}

var textOpts = &textOptions{}

var textCmd = &cobra.Command{
	Use:       "text <manual|dev>",
	Short:     "Print a text page",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"manual", "dev"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runText(cmd.Context(), args[0], textOpts)
	},
}

var settingsOpts = &textOptions{}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Print the site settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSettings(cmd.Context(), settingsOpts)
	},
}

func init() {
	textCmd.Flags().StringVarP(&textOpts.format, "format", "f", "text", "Output format: json, text")
	settingsCmd.Flags().StringVarP(&settingsOpts.format, "format", "f", "table", "Output format: json, table")

	rootCmd.AddCommand(textCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runText(ctx context.Context, name string, opts *textOptions) error {
	service, _, _, err := newService()
	if err != nil {
		return err
	}
	doc, err := service.Text(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", name, err)
	}
	return lending.NewFormatter(lending.OutputFormat(opts.format), os.Stdout).FormatDocument(doc)
}

func runSettings(ctx context.Context, opts *textOptions) error {
	service, _, _, err := newService()
	if err != nil {
		return err
	}
	settings, err := service.Settings(ctx)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	return lending.NewFormatter(lending.OutputFormat(opts.format), os.Stdout).FormatSettings(settings)
}
