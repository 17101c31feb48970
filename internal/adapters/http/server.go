// Package http serves the document API: runs are created asynchronously,
// fetched as JSON records, and observed live over SSE.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/scribe"
	"github.com/aretw0/scribe/pkg/domain"
)

// maxBodyBytes caps request bodies. A technology list is tiny; anything
// larger is not a document request.
const maxBodyBytes = 1 << 20

// heartbeatInterval paces SSE keepalives. Each beat also re-reads the run
// record, so a stream that attached in the gap between the run-end event and
// the terminal save still finishes instead of idling forever.
const heartbeatInterval = 15 * time.Second

// Service is the slice of the run manager the HTTP surface needs.
type Service interface {
	Start(ctx context.Context, technologies []string) (*domain.Run, error)
	Get(ctx context.Context, id string) (*domain.Run, error)
	List(ctx context.Context) ([]*domain.Run, error)
	Delete(ctx context.Context, id string) error
	Subscribe(runID string) (<-chan domain.NodeEvent, func())
}

// Server holds the handlers behind the chi router.
type Server struct {
	service Service
	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the server.
type Option func(*Server)

// WithLogger routes request and handler logs to l.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// NewHandler wires the API routes and middleware around svc.
func NewHandler(svc Service, opts ...Option) http.Handler {
	s := &Server{service: svc, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/card", s.agentCard)
		r.Route("/documents", func(r chi.Router) {
			r.Post("/", s.createDocument)
			r.Get("/", s.listDocuments)
			r.Get("/{id}", s.getDocument)
			r.Delete("/{id}", s.deleteDocument)
			r.Get("/{id}/events", s.streamEvents)
		})
	})

	return enableCORS(s.logRequests(r))
}

type createDocumentRequest struct {
	Technologies []string `json:"technologies"`
}

type listResponse struct {
	Runs  []*domain.Run `json:"runs"`
	Count int           `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// createDocument handles POST /api/v1/documents. The run starts in the
// background; the response is the pending record with its id.
func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	run, err := s.service.Start(r.Context(), req.Technologies)
	if err != nil {
		var inputErr *domain.InputError
		if errors.Is(err, domain.ErrNoTechnologies) || errors.As(err, &inputErr) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("start run", "err", err)
		s.respondError(w, http.StatusInternalServerError, "could not start run")
		return
	}

	s.respond(w, http.StatusAccepted, run)
}

// listDocuments handles GET /api/v1/documents, newest first.
func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.List(r.Context())
	if err != nil {
		s.logger.Error("list runs", "err", err)
		s.respondError(w, http.StatusInternalServerError, "could not list runs")
		return
	}
	if runs == nil {
		runs = []*domain.Run{}
	}
	s.respond(w, http.StatusOK, listResponse{Runs: runs, Count: len(runs)})
}

// getDocument handles GET /api/v1/documents/{id}.
func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("get run", "err", err)
		s.respondError(w, http.StatusInternalServerError, "could not load run")
		return
	}
	s.respond(w, http.StatusOK, run)
}

// deleteDocument handles DELETE /api/v1/documents/{id}.
func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("delete run", "err", err)
		s.respondError(w, http.StatusInternalServerError, "could not delete run")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// streamEvents handles GET /api/v1/documents/{id}/events as an SSE stream.
// A run that already ended replays a single run_end event so late clients
// do not hang.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	id := chi.URLParam(r, "id")

	// Subscribe before the status check: a run that ends in between still
	// delivers its run_end to this channel.
	events, cancel := s.service.Subscribe(id)
	defer cancel()

	run, err := s.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("get run", "err", err)
		s.respondError(w, http.StatusInternalServerError, "could not load run")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	if terminal(run.Status) {
		s.writeEvent(w, runEndEvent(run))
		flusher.Flush()
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := s.writeEvent(w, ev); err != nil {
				return
			}
			flusher.Flush()
			if ev.Type == domain.EventRunEnd {
				return
			}
		case <-heartbeat.C:
			fmt.Fprintf(w, "event: ping\ndata: alive\n\n")
			flusher.Flush()
			run, err := s.service.Get(r.Context(), id)
			if err == nil && terminal(run.Status) {
				s.writeEvent(w, runEndEvent(run))
				flusher.Flush()
				return
			}
		}
	}
}

func (s *Server) writeEvent(w io.Writer, ev domain.NodeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
	return err
}

func terminal(status domain.RunStatus) bool {
	return status == domain.RunCompleted || status == domain.RunFailed
}

func runEndEvent(run *domain.Run) domain.NodeEvent {
	return domain.NodeEvent{
		Timestamp: run.UpdatedAt,
		Type:      domain.EventRunEnd,
		RunID:     run.ID,
		Err:       run.Error,
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

type agentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

type agentCardResponse struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Version     string       `json:"version"`
	Skills      []agentSkill `json:"skills"`
}

// agentCard handles GET /api/v1/card, the descriptor agent clients fetch
// before calling the service.
func (s *Server) agentCard(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, agentCardResponse{
		Name:        "scribe",
		Description: "Generates technology documentation from a list of technologies.",
		Version:     scribe.Version,
		Skills: []agentSkill{{
			ID:          "generate_document",
			Name:        "Document Generator",
			Description: "Produces a structured markdown document covering the requested technologies.",
			Tags:        []string{"documentation", "generation", "technology"},
			Examples:    []string{"Go, Redis, Docker"},
		}},
	})
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respond(w, status, errorResponse{Error: msg})
}

// statusWriter records the status code for the request log. It forwards
// Flush so SSE keeps working behind the middleware.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration", time.Since(start),
		)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
