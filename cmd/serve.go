package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/hydro/internal/cache"
	"github.com/fakeyudi/hydro/internal/docstore"
	"github.com/fakeyudi/hydro/internal/server"
)

const shutdownTimeout = 5 * time.Second

var (
	serveAddr string
	serveDB   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a remote store that other hydro clients can sync with",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := serveDB
		if dbPath == "" {
			dir, err := cache.DataDir()
			if err != nil {
				return err
			}
			dbPath = filepath.Join(dir, "hydro.db")
		}
		docs, err := docstore.New(dbPath)
		if err != nil {
			return err
		}
		defer docs.Close()

		ln, err := net.Listen("tcp", serveAddr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", serveAddr, err)
		}
		return serve(cmd, server.New(serveAddr, docs, cfg.HistoryLimit), ln)
	},
}

// serve runs srv on ln until the command context ends, then shuts it down.
func serve(cmd *cobra.Command, srv *server.Server, ln net.Listener) error {
	cmd.Printf("Serving hydration state on http://%s\n", ln.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-cmd.Context().Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8750", "listen address")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite database path (default: data dir/hydro.db)")
	rootCmd.AddCommand(serveCmd)
}
