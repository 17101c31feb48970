package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpadapter "github.com/aretw0/scribe/internal/adapters/http"
	"github.com/aretw0/scribe/internal/cli"
	"github.com/aretw0/scribe/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP document service",
	Long: `Starts scribe in server mode, exposing the document API over HTTP.
Runs are created with POST /api/v1/documents and observed live over SSE.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		logger, err := cli.NewLogger(cfg)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		metrics := observability.NewMetrics()
		manager, closeStore, err := cli.NewManager(ctx, cfg, logger, metrics)
		if err != nil {
			fmt.Printf("Error initializing scribe: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		srv := &http.Server{
			Addr: cfg.Server.Addr,
			Handler: httpadapter.NewHandler(manager,
				httpadapter.WithLogger(logger),
				httpadapter.WithMetrics(metrics.Handler()),
			),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("server listening", "addr", cfg.Server.Addr, "store", cfg.Store.Kind)
			serverErrors <- srv.ListenAndServe()
		}()

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case <-ctx.Done():
			logger.Info("shutdown started")

			// Give outstanding requests and runs a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown did not complete", "error", err)
				if err := srv.Close(); err != nil {
					logger.Error("could not stop server", "error", err)
				}
			}
			if err := manager.Shutdown(shutdownCtx); err != nil {
				logger.Warn("runs did not drain", "error", err)
			}
			logger.Info("server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address, e.g. :8080 (overrides config)")
}
