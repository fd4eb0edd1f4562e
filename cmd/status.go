package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/hydro/internal/report"
	"github.com/fakeyudi/hydro/internal/tips"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's intake, streak and sync state",
	RunE: func(cmd *cobra.Command, args []string) error {
		format := "text"
		if statusJSON {
			format = "json"
		}
		r, err := report.For(format)
		if err != nil {
			return err
		}

		return withApp(cmd, false, func(a *app) error {
			// Settle the startup write-back so the sync line is final.
			ctx, cancel := context.WithTimeout(cmd.Context(), closeTimeout)
			defer cancel()
			a.sched.Flush(ctx)

			st := a.eng.State()
			src := &tips.Static{Delay: -1}
			out, err := r.Render(&report.Report{
				State: st,
				Sync:  a.tracker.Snapshot(),
				Tip:   src.Tip(ctx, st.CurrentAmount, st.Goal),
				Now:   time.Now(),
			})
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		})
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print machine-readable JSON")
	rootCmd.AddCommand(statusCmd)
}
