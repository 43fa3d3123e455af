package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iliamunaev/async-styles/internal/app"
	"github.com/iliamunaev/async-styles/internal/logging"
)

func newRootCmd(getenv func(string) string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:          "async-styles",
		Short:        "Serve the same user record through callback, promise, await and chain styles",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := logging.New(cmd.ErrOrStderr(), slog.LevelInfo)

			cfg, err := app.ConfigFromEnv(getenv)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				if err := app.ValidatePort(port); err != nil {
					return err
				}
				cfg.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			return serve(ctx, ln, app.New(cfg, logger), logger)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", app.DefaultPort, "port to listen on (overrides $"+app.PortEnv+")")
	return cmd
}

// serve runs the HTTP server on ln until ctx is done, then shuts it down
// gracefully within the app's shutdown timeout.
func serve(ctx context.Context, ln net.Listener, a *app.App, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:           a.Handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		port := ln.Addr().(*net.TCPAddr).Port
		logger.Info(fmt.Sprintf("Server listening on http://localhost:%d", port))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "steps_running", a.Tracker.Running())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
