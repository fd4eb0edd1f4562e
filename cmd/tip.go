package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/hydro/internal/tips"
)

var tipCmd = &cobra.Command{
	Use:   "tip",
	Short: "Print a hydration tip for today's progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, false, func(a *app) error {
			st := a.eng.State()
			src := tips.NewStatic(uint64(time.Now().UnixNano()))
			cmd.Println(src.Tip(cmd.Context(), st.CurrentAmount, st.Goal))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(tipCmd)
}
