// Package cmd implements pbxd's CLI surface: a cobra root command with one
// "serve" subcommand, mirroring the teacher's internal/cmd.NewRootCmd split
// between a root command and per-verb files.
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/uw-it-ist/pbxd/internal/activitylog"
	"github.com/uw-it-ist/pbxd/internal/config"
	"github.com/uw-it-ist/pbxd/internal/httpapi"
	"github.com/uw-it-ist/pbxd/internal/pbxterm"
)

func newServeCmd() *cobra.Command {
	var addr string
	var logPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the PBX bridge HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, logPath)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	cmd.Flags().StringVar(&logPath, "log", "", "activity log path (defaults to <runtime-dir>/pbxd-activity.log)")
	return cmd
}

func runServe(addr, logPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if logPath == "" {
		logPath = filepath.Join(cfg.RuntimeDir, "pbxd-activity.log")
	}
	logger, err := activitylog.New(logPath, cfg.PBXName)
	if err != nil {
		return fmt.Errorf("open activity log: %w", err)
	}
	defer logger.Close()

	// Only one worker may own the PBX child session at a time; see
	// SPEC_FULL.md §5.
	lockPath := filepath.Join(cfg.RuntimeDir, "pbxd.lock")
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire startup lock %s: %w", lockPath, err)
	}
	if !locked {
		return fmt.Errorf("another pbxd worker already holds %s", lockPath)
	}
	defer lock.Unlock()

	term := pbxterm.NewTerminal(cfg.ConnectionCommand, cfg.PBXUsername, cfg.PBXPassword, cfg.CommandTimeout, logger)

	if err := term.Connect(); err != nil {
		if isTooManyLogins(err) {
			// Reproduces app.py's gunicorn worker-respawn contract: sleep
			// then exit so a supervising process manager restarts us.
			logger.Errorf("connect failed, too many logins: %v", err)
			time.Sleep(10 * time.Second)
			os.Exit(1)
		}
		return fmt.Errorf("unable to connect to PBX: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &httpapi.Server{
		Terminal:        term,
		PBXName:         cfg.PBXName,
		ApplicationRoot: cfg.ApplicationRoot,
	}

	errCh := make(chan error, 1)
	go func() {
		err := server.ListenAndServe(addr)
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Infof("pbxd listening on %s", addr)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			term.Disconnect()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
	term.Disconnect()
	return nil
}

func isTooManyLogins(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "too many logins")
}
