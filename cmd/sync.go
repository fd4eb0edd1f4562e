package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push the current record to the remote store now",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, false, func(a *app) error {
			if a.remote == nil {
				cmd.Println("Local-only mode: nothing to sync. Set remote_url or HYDRO_REMOTE_URL to enable sync.")
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), closeTimeout)
			defer cancel()
			st := a.eng.State()
			if err := a.sched.PushNow(ctx, st); err != nil {
				return fmt.Errorf("sync failed, the record is kept locally: %w", err)
			}
			cmd.Printf("Synced %.2f L to %s.\n", st.CurrentAmount, a.cfg.RemoteURL)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
