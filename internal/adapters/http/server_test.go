package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scribe"
	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/pkg/domain"
)

// stubService implements Service in memory. Subscribe always hands out the
// same buffered channel, so tests can preload events before the request.
type stubService struct {
	mu       sync.Mutex
	runs     map[string]*domain.Run
	order    []string
	started  [][]string
	startErr error
	events   chan domain.NodeEvent
	cancels  int
}

func newStubService(runs ...*domain.Run) *stubService {
	s := &stubService{
		runs:   make(map[string]*domain.Run),
		events: make(chan domain.NodeEvent, 8),
	}
	for _, r := range runs {
		s.runs[r.ID] = r
		s.order = append(s.order, r.ID)
	}
	return s
}

func (s *stubService) Start(ctx context.Context, technologies []string) (*domain.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return nil, s.startErr
	}
	s.started = append(s.started, technologies)
	run := &domain.Run{
		ID:           "run-1",
		Status:       domain.RunPending,
		Technologies: technologies,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)
	return run.Clone(), nil
}

func (s *stubService) Get(ctx context.Context, id string) (*domain.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return run.Clone(), nil
}

func (s *stubService) List(ctx context.Context) ([]*domain.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Run
	for _, id := range s.order {
		out = append(out, s.runs[id].Clone())
	}
	return out, nil
}

func (s *stubService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return domain.ErrRunNotFound
	}
	delete(s.runs, id)
	for i, got := range s.order {
		if got == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *stubService) Subscribe(runID string) (<-chan domain.NodeEvent, func()) {
	return s.events, func() {
		s.mu.Lock()
		s.cancels++
		s.mu.Unlock()
	}
}

func newTestHandler(svc Service) http.Handler {
	return NewHandler(svc, WithLogger(logging.NewNop()))
}

func TestCreateDocumentAccepted(t *testing.T) {
	svc := newStubService()
	handler := newTestHandler(svc)

	req := httptest.NewRequest("POST", "/api/v1/documents", strings.NewReader(`{"technologies":["Go","Redis"]}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var run domain.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &run))
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, domain.RunPending, run.Status)
	assert.Equal(t, [][]string{{"Go", "Redis"}}, svc.started)
}

func TestCreateDocumentBadInput(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		startErr error
	}{
		{name: "malformed json", body: `{"technologies": nope}`},
		{name: "empty list", body: `{"technologies":[]}`, startErr: domain.ErrNoTechnologies},
		{name: "rejected input", body: `{"technologies":["Go"]}`, startErr: &domain.InputError{Reason: "too many technologies"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newStubService()
			svc.startErr = tt.startErr
			handler := newTestHandler(svc)

			req := httptest.NewRequest("POST", "/api/v1/documents", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestGetDocument(t *testing.T) {
	run := &domain.Run{ID: "run-1", Status: domain.RunCompleted, Technologies: []string{"Go"}}
	handler := newTestHandler(newStubService(run))

	req := httptest.NewRequest("GET", "/api/v1/documents/run-1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var got domain.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, domain.RunCompleted, got.Status)
}

func TestGetDocumentNotFound(t *testing.T) {
	handler := newTestHandler(newStubService())

	req := httptest.NewRequest("GET", "/api/v1/documents/missing", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "run not found", resp["error"])
}

func TestListDocuments(t *testing.T) {
	handler := newTestHandler(newStubService(
		&domain.Run{ID: "run-1", Status: domain.RunCompleted},
		&domain.Run{ID: "run-2", Status: domain.RunRunning},
	))

	req := httptest.NewRequest("GET", "/api/v1/documents", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Runs, 2)
	assert.Equal(t, "run-1", resp.Runs[0].ID)
}

func TestListDocumentsEmptyIsNotNull(t *testing.T) {
	handler := newTestHandler(newStubService())

	req := httptest.NewRequest("GET", "/api/v1/documents", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"runs":[]`)
}

func TestDeleteDocument(t *testing.T) {
	handler := newTestHandler(newStubService(&domain.Run{ID: "run-1"}))

	req := httptest.NewRequest("DELETE", "/api/v1/documents/run-1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	req = httptest.NewRequest("DELETE", "/api/v1/documents/run-1", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStreamEventsReplaysTerminalRun(t *testing.T) {
	run := &domain.Run{
		ID:        "run-1",
		Status:    domain.RunFailed,
		Error:     `step "write" failed after 3 attempt(s): boom`,
		UpdatedAt: time.Now(),
	}
	svc := newStubService(run)
	handler := newTestHandler(svc)

	req := httptest.NewRequest("GET", "/api/v1/documents/run-1/events", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	body := rr.Body.String()
	assert.Contains(t, body, "event: ping\ndata: connected")
	assert.Contains(t, body, "event: run_end")
	assert.Contains(t, body, `step \"write\" failed`)
	assert.Equal(t, 1, svc.cancels, "subscription must be released")
}

func TestStreamEventsForwardsLiveEvents(t *testing.T) {
	run := &domain.Run{ID: "run-1", Status: domain.RunRunning}
	svc := newStubService(run)
	svc.events <- domain.NodeEvent{Timestamp: time.Now(), Type: domain.EventNodeStart, RunID: "run-1", Node: "prepare"}
	svc.events <- domain.NodeEvent{Timestamp: time.Now(), Type: domain.EventRunEnd, RunID: "run-1"}
	handler := newTestHandler(svc)

	req := httptest.NewRequest("GET", "/api/v1/documents/run-1/events", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	body := rr.Body.String()
	assert.Contains(t, body, "event: node_start")
	assert.Contains(t, body, `"node":"prepare"`)
	assert.Contains(t, body, "event: run_end")
	assert.Equal(t, 1, svc.cancels)
}

func TestStreamEventsNotFound(t *testing.T) {
	handler := newTestHandler(newStubService())

	req := httptest.NewRequest("GET", "/api/v1/documents/missing/events", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetHealth(t *testing.T) {
	handler := newTestHandler(newStubService())

	req := httptest.NewRequest("GET", "/healthz", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestAgentCard(t *testing.T) {
	handler := newTestHandler(newStubService())

	req := httptest.NewRequest("GET", "/api/v1/card", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var card agentCardResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &card))
	assert.Equal(t, "scribe", card.Name)
	assert.Equal(t, scribe.Version, card.Version)
	require.Len(t, card.Skills, 1)
	assert.Equal(t, "generate_document", card.Skills[0].ID)
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := NewHandler(newStubService(), WithLogger(logging.NewNop()), WithMetrics(metrics))

	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestHandler(newStubService())

	req := httptest.NewRequest("OPTIONS", "/api/v1/documents", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
