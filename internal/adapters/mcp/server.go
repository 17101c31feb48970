// Package mcp exposes the document service to MCP clients over stdio or SSE.
// It mirrors the HTTP surface for tool callers: generation, run lookup, and
// the pipeline graph as a resource.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/scribe"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/flow"
)

// Service is the slice of the run manager the MCP tools need. Generation is
// synchronous here: a tool caller wants the document in the response, not a
// run id to poll.
type Service interface {
	Run(ctx context.Context, technologies []string) (*domain.Run, error)
	Get(ctx context.Context, id string) (*domain.Run, error)
	List(ctx context.Context) ([]*domain.Run, error)
}

// GenerateDocumentResult is the structured payload of generate_document.
type GenerateDocumentResult struct {
	RunID        string    `json:"run_id" jsonschema_description:"Identifier of the finished run"`
	Status       string    `json:"status" jsonschema_description:"Terminal status of the run"`
	Technologies []string  `json:"technologies" jsonschema_description:"Cleaned technology list the document covers"`
	Markdown     string    `json:"markdown" jsonschema_description:"The generated markdown document"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// runSummary keeps list_runs payloads small; the full record, document
// included, is fetched per run with get_run.
type runSummary struct {
	ID           string           `json:"id"`
	Status       domain.RunStatus `json:"status"`
	Technologies []string         `json:"technologies"`
	CreatedAt    time.Time        `json:"created_at"`
	Error        string           `json:"error,omitempty"`
	HasDocument  bool             `json:"has_document"`
}

// Server wraps the run manager and exposes it as an MCP server.
type Server struct {
	service   Service
	edges     []flow.Edge
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server with every tool and resource registered.
// edges is the pipeline graph served as the scribe://graph resource.
func NewServer(svc Service, edges []flow.Edge) *Server {
	s := &Server{
		service:   svc,
		edges:     edges,
		mcpServer: server.NewMCPServer("scribe", strings.TrimSpace(scribe.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: generate_document
	generateTool := mcp.NewTool("generate_document",
		mcp.WithDescription("Generate a markdown document covering the given technologies. Runs the full pipeline (outline, web research, write) and returns the document; expect it to take a while."),
		mcp.WithArray("technologies", mcp.Required(),
			mcp.Description(`Technologies to cover, e.g. ["Go", "Redis", "Docker"]`),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithOutputSchema[GenerateDocumentResult](),
	)
	s.mcpServer.AddTool(generateTool, mcp.NewStructuredToolHandler(s.handleGenerate))

	// TOOL: get_run
	getRunTool := mcp.NewTool("get_run",
		mcp.WithDescription("Fetch one run record by id, including the document when the run completed."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run identifier, as returned by generate_document or list_runs")),
	)
	s.mcpServer.AddTool(getRunTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			RunID string `json:"run_id"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("bad arguments: %v", err)), nil
		}
		run, err := s.service.Get(ctx, args.RunID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("get failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(run)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: list_runs
	s.mcpServer.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List run records, newest first, without document bodies."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		runs, err := s.service.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		summaries := make([]runSummary, 0, len(runs))
		for _, run := range runs {
			summaries = append(summaries, summarize(run))
		}
		jsonBytes, _ := json.Marshal(summaries)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GenerateDocumentResult, error) {
	technologies := stringList(args["technologies"])

	run, err := s.service.Run(ctx, technologies)
	if err != nil {
		return GenerateDocumentResult{}, fmt.Errorf("generate failed: %w", err)
	}
	if run.Status != domain.RunCompleted || run.Document == nil {
		return GenerateDocumentResult{}, fmt.Errorf("run %s failed: %s", run.ID, run.Error)
	}

	return GenerateDocumentResult{
		RunID:        run.ID,
		Status:       string(run.Status),
		Technologies: run.Technologies,
		Markdown:     run.Document.Markdown,
		GeneratedAt:  run.Document.GeneratedAt,
	}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: scribe://graph
	s.mcpServer.AddResource(mcp.NewResource("scribe://graph", "Pipeline Step Graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.edges)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal graph: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "scribe://graph",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func summarize(run *domain.Run) runSummary {
	return runSummary{
		ID:           run.ID,
		Status:       run.Status,
		Technologies: run.Technologies,
		CreatedAt:    run.CreatedAt,
		Error:        run.Error,
		HasDocument:  run.Document != nil,
	}
}

// stringList coerces the wire forms clients send for a string array: a JSON
// array, or a single comma-separated string.
func stringList(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		parts := strings.Split(vals, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return nil
}
