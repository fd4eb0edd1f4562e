package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/hydro/internal/cache"
	"github.com/fakeyudi/hydro/internal/config"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// verbose sends logs to stderr instead of the log file.
var verbose bool

// logFile is the open log destination, closed after the command runs.
var logFile io.Closer

var rootCmd = &cobra.Command{
	Use:           "hydro",
	Short:         "Track daily water intake, offline first, with optional sync",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// First run: offer the wizard when a human is at the keyboard.
		if !config.GlobalExists() && term.IsTerminal(os.Stdin.Fd()) {
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "  Welcome to hydro! Looks like this is your first time.")
			if err := runSetup(cmd, os.Stdin); err != nil {
				return err
			}
		}
		if err := loadConfig(); err != nil {
			return err
		}
		return setupLogging(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr at debug level")
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCmd.SetOut(os.Stdout)
	if err := run(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// run executes the command tree. The log file is closed on every path;
// cobra skips PersistentPostRunE when RunE fails.
func run(ctx context.Context) error {
	defer closeLog()
	return rootCmd.ExecuteContext(ctx)
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// loadConfig merges defaults, the global file, the project file and the
// environment, in increasing precedence.
func loadConfig() error {
	global, err := config.LoadGlobal()
	if err != nil {
		return fmt.Errorf("loading global config: %w", err)
	}
	project, err := config.LoadProject()
	if err != nil {
		return fmt.Errorf("loading project config: %w", err)
	}
	cfg = config.Merge(global, project)
	config.ApplyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// setupLogging installs the default slog logger. Commands log to a file so
// that their output and the dashboard stay clean; --verbose logs to stderr.
func setupLogging(cmd *cobra.Command) error {
	if verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})))
		return nil
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	path := cfg.LogFile
	if path == "" {
		dir, err := cache.DataDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "hydro.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	closeLog()
	logFile = f
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})))
	return nil
}

func closeLog() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}
