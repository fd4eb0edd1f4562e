package cmd

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/hydro/internal/tips"
	"github.com/fakeyudi/hydro/internal/tui"
)

var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Open the interactive hydration dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(os.Stdout.Fd()) {
			return errors.New("dash needs an interactive terminal; use 'hydro status' instead")
		}
		return withApp(cmd, false, func(a *app) error {
			ctx := cmd.Context()

			// Follow writes from other hydro processes sharing the cache.
			err := watchCache(ctx, a)
			if err != nil {
				slog.Warn("cache watch disabled", "err", err)
			}

			return tui.Run(ctx, a.eng, a.tracker, tui.Options{
				Tips: tips.NewStatic(uint64(time.Now().UnixNano())),
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(dashCmd)
}
