package cmd

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/longkey1/kitlend/internal/lending"
)

var reserveOpts = &lending.Reservation{}

var reserveCmd = &cobra.Command{
	Use:   "reserve",
	Short: "Reserve a kit",
	Long: `Reserve a kit for a date range.

The reservation is stored as pending and a confirmation mail is sent when
SendGrid is configured.`,
	Example: `  kitlend reserve --kit <id> --name "Ada" --email ada@example.com \
    --start 2024-08-01 --end 2024-08-03 --project "Thesis film"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReserve(cmd.Context(), *reserveOpts)
	},
}

func init() {
	f := reserveCmd.Flags()
	f.StringVar(&reserveOpts.KitID, "kit", "", "Kit id")
	f.StringVar(&reserveOpts.Name, "name", "", "Your name")
	f.StringVar(&reserveOpts.Email, "email", "", "Your e-mail address")
	f.StringVar(&reserveOpts.Wechat, "wechat", "", "Your WeChat id")
	f.StringVar(&reserveOpts.Project, "project", "", "Project the kit is used for")
	f.StringVar(&reserveOpts.Usage, "usage", "", "How the kit is used")
	f.StringVar(&reserveOpts.StartDate, "start", "", "First day (YYYY-MM-DD)")
	f.StringVar(&reserveOpts.EndDate, "end", "", "Last day (YYYY-MM-DD)")

	rootCmd.AddCommand(reserveCmd)
}

func runReserve(ctx context.Context, r lending.Reservation) error {
	service, _, _, err := newService()
	if err != nil {
		return err
	}

	id, err := service.Reserve(ctx, r)
	var verr *lending.ValidationError
	if errors.As(err, &verr) {
		names := make([]string, 0, len(verr.Fields))
		for name := range verr.Fields {
			names = append(names, name)
		}
		slices.Sort(names)
		lines := make([]string, 0, len(names))
		for _, name := range names {
			lines = append(lines, fmt.Sprintf("  %s: %s", name, strings.Join(verr.Fields[name], "; ")))
		}
		return fmt.Errorf("invalid reservation:\n%s", strings.Join(lines, "\n"))
	}
	if err != nil {
		return fmt.Errorf("failed to reserve: %w", err)
	}

	fmt.Printf("Reservation %s created (pending).\n", id)
	return nil
}
