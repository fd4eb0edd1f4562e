package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/hydro/internal/engine"
	"github.com/fakeyudi/hydro/internal/hydration"
	"github.com/fakeyudi/hydro/internal/report"
)

// closeTimeout bounds the final flush when a command exits.
const closeTimeout = 5 * time.Second

var (
	addLabel    string
	addIcon     string
	addCategory string
)

var addCmd = &cobra.Command{
	Use:   "add <ml|cup|jug|sip>",
	Short: "Log a drink, by milliliters or by preset name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := parseIntake(args[0])
		if err != nil {
			return err
		}
		if addLabel != "" {
			in.Label = addLabel
		}
		if addIcon != "" {
			in.Icon = addIcon
		}
		if addCategory != "" {
			in.Category = addCategory
		}

		return withApp(cmd, true, func(a *app) error {
			ev, err := a.eng.RecordIntake(in)
			if err != nil {
				return err
			}
			st := a.eng.State()
			cmd.Printf("Logged %.0f ml (%s).\n", ev.Amount, ev.Label)
			cmd.Printf("Today: %.2f / %.1f L (%d%%)\n", st.CurrentAmount, st.Goal, report.Percent(st))
			return nil
		})
	},
}

// parseIntake accepts a preset name or a positive number of milliliters.
func parseIntake(arg string) (engine.Intake, error) {
	if p, err := hydration.LookupPreset(arg); err == nil {
		return engine.Intake{AmountMl: p.AmountMl, Label: p.Label, Icon: p.Icon, Category: p.Category}, nil
	}
	ml, err := strconv.ParseFloat(arg, 64)
	if err != nil || !hydration.ValidAmount(ml) {
		return engine.Intake{}, fmt.Errorf("%q is neither a preset (cup, jug, sip) nor a positive amount in ml", arg)
	}
	return engine.Intake{AmountMl: ml}, nil
}

// withApp opens the app, runs fn and flushes on the way out. A failed flush
// only changes the sync line; the record is already cached.
func withApp(cmd *cobra.Command, showSync bool, fn func(a *app) error) error {
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	runErr := fn(a)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), closeTimeout)
	defer cancel()
	a.Close(ctx)
	if runErr == nil && showSync {
		printSync(cmd, a)
	}
	return runErr
}

// printSync reports where the record ended up.
func printSync(cmd *cobra.Command, a *app) {
	snap := a.tracker.Snapshot()
	if snap.LastError != "" {
		cmd.Printf("Sync: %s (%s)\n", snap.Status, snap.LastError)
		return
	}
	cmd.Printf("Sync: %s\n", snap.Status)
}

func init() {
	addCmd.Flags().StringVar(&addLabel, "label", "", "label for the log entry")
	addCmd.Flags().StringVar(&addIcon, "icon", "", "icon name for the log entry")
	addCmd.Flags().StringVar(&addCategory, "category", "", "category for the log entry")
	rootCmd.AddCommand(addCmd)
}
