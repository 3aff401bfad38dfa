package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/longkey1/kitlend/internal/lending"
)

type kitsOptions struct {
	format string
}

var kitsOpts = &kitsOptions{}

var kitsCmd = &cobra.Command{
	Use:   "kits",
	Short: "List the kits and whether they are available today",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runKits(cmd.Context(), kitsOpts)
	},
}

type kitOptions struct {
	format string
}

var kitOpts = &kitOptions{}

var kitCmd = &cobra.Command{
	Use:   "kit <id|#serial>",
	Short: "Show a kit and its reservations",
	Long: `Show a kit and its reservations.

The kit is addressed by its page or document id, or by its serial number
written as #12 or KIT-12.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runKit(cmd.Context(), args[0], kitOpts)
	},
}

func init() {
	kitsCmd.Flags().StringVarP(&kitsOpts.format, "format", "f", "table", "Output format: json, text, table")
	kitCmd.Flags().StringVarP(&kitOpts.format, "format", "f", "text", "Output format: json, text, table")

	rootCmd.AddCommand(kitsCmd)
	rootCmd.AddCommand(kitCmd)
}

func runKits(ctx context.Context, opts *kitsOptions) error {
	service, _, _, err := newService()
	if err != nil {
		return err
	}
	kits, err := service.Kits(ctx)
	if err != nil {
		return fmt.Errorf("failed to list kits: %w", err)
	}
	return lending.NewFormatter(lending.OutputFormat(opts.format), os.Stdout).FormatKits(kits)
}

// parseSerial accepts "#12" and "PREFIX-12"
func parseSerial(ref string) (int, bool) {
	var digits string
	switch {
	case strings.HasPrefix(ref, "#"):
		digits = ref[1:]
	case strings.Contains(ref, "-") && len(ref) < 32:
		digits = ref[strings.LastIndex(ref, "-")+1:]
	default:
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func runKit(ctx context.Context, ref string, opts *kitOptions) error {
	service, _, _, err := newService()
	if err != nil {
		return err
	}

	var detail *lending.KitDetail
	if serial, ok := parseSerial(ref); ok {
		detail, err = service.KitBySerial(ctx, serial)
	} else {
		detail, err = service.Kit(ctx, ref)
	}
	if err != nil {
		return fmt.Errorf("failed to get kit: %w", err)
	}
	return lending.NewFormatter(lending.OutputFormat(opts.format), os.Stdout).FormatKit(detail)
}
