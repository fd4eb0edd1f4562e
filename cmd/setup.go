package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/hydro/internal/config"
	"github.com/fakeyudi/hydro/internal/setup"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure hydro (re-run anytime to edit settings)",
	// Bypass the root PersistentPreRunE so setup works before a config exists.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd, os.Stdin)
	},
}

// runSetup runs the wizard over the current global config and saves the result.
func runSetup(cmd *cobra.Command, in io.Reader) error {
	existing, err := config.LoadGlobal()
	if err != nil {
		d := config.Defaults()
		existing = &d
	}
	merged := config.Merge(existing, nil)

	next, err := setup.Run(in, cmd.OutOrStdout(), merged)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}
	path, err := config.SaveGlobal(next)
	if err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	cmd.Printf("  ✓ Config saved to %s\n", path)
	if next.RemoteURL == "" {
		cmd.Println("  Running local-only. Run 'hydro add sip' to log your first drink.")
	} else {
		cmd.Printf("  Syncing with %s. Run 'hydro add sip' to log your first drink.\n", next.RemoteURL)
	}
	cmd.Println()
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
