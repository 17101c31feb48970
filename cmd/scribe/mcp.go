package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpadapter "github.com/aretw0/scribe/internal/adapters/mcp"
	"github.com/aretw0/scribe/internal/cli"
	"github.com/aretw0/scribe/internal/pipeline"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts scribe as an MCP server so AI agents can generate documents as a tool.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		// 1. Logger. Logs must stay on stderr: stdout carries JSON-RPC.
		logger, err := cli.NewLogger(cfg)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		slog.SetDefault(logger)
		log.SetOutput(os.Stderr)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// 2. Manager and server adapter
		manager, closeStore, err := cli.NewManager(ctx, cfg, logger, nil)
		if err != nil {
			fmt.Printf("Error initializing scribe: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = manager.Shutdown(shutdownCtx)
		}()

		srv := mcpadapter.NewServer(manager, pipeline.Edges(false))

		// 3. Serve on the selected transport
		switch transport {
		case "stdio":
			slog.Info("mcp server starting (stdio)")
			if err := srv.ServeStdio(); err != nil {
				slog.Error("mcp server failed", "error", err)
				os.Exit(1)
			}
		case "sse":
			slog.Info("mcp server starting (sse)", "port", port)
			if err := srv.ServeSSE(ctx, port); err != nil {
				// Ignore server closed error if it was caused by context cancellation
				if err != http.ErrServerClosed {
					slog.Error("mcp server failed", "error", err)
					os.Exit(1)
				}
			}
			slog.Info("mcp server stopped gracefully")
		default:
			fmt.Printf("Unknown transport: %s. Supported: stdio, sse\n", transport)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}
