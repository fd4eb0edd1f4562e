package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/hydro/internal/hydration"
	"github.com/fakeyudi/hydro/internal/report"
)

var goalCmd = &cobra.Command{
	Use:   "goal <liters|next>",
	Short: "Set the daily goal, or step to the next preset goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, true, func(a *app) error {
			liters, err := parseGoal(args[0], a.eng.State().Goal)
			if err != nil {
				return err
			}
			if err := a.eng.SetGoal(liters); err != nil {
				return err
			}
			st := a.eng.State()
			cmd.Printf("Daily goal set to %.1f L (%d%% reached).\n", st.Goal, report.Percent(st))
			return nil
		})
	},
}

// parseGoal accepts a number of liters or "next", which cycles the preset
// goals starting from current.
func parseGoal(arg string, current float64) (float64, error) {
	if arg == "next" {
		return hydration.NextGoal(current), nil
	}
	liters, err := strconv.ParseFloat(arg, 64)
	if err != nil || !hydration.ValidGoal(liters) {
		return 0, fmt.Errorf("%q is not a positive number of liters", arg)
	}
	return liters, nil
}

func init() {
	rootCmd.AddCommand(goalCmd)
}
