package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scribe/internal/pipeline"
	"github.com/aretw0/scribe/pkg/domain"
)

type stubService struct {
	got    []string
	result *domain.Run
	err    error
	runs   []*domain.Run
}

func (s *stubService) Run(ctx context.Context, technologies []string) (*domain.Run, error) {
	s.got = technologies
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubService) Get(ctx context.Context, id string) (*domain.Run, error) {
	for _, run := range s.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, domain.ErrRunNotFound
}

func (s *stubService) List(ctx context.Context) ([]*domain.Run, error) {
	return s.runs, nil
}

func completedRun() *domain.Run {
	return &domain.Run{
		ID:           "run-1",
		Status:       domain.RunCompleted,
		Technologies: []string{"Go", "Redis"},
		Document: &domain.Document{
			Markdown:     "# Technology Overview\n\nbody",
			Technologies: []string{"Go", "Redis"},
			GeneratedAt:  time.Date(2025, 8, 25, 14, 30, 0, 0, time.UTC),
		},
	}
}

func TestHandleGenerateReturnsDocument(t *testing.T) {
	svc := &stubService{result: completedRun()}
	s := NewServer(svc, pipeline.Edges(false))

	result, err := s.handleGenerate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"technologies": []any{"Go", "Redis"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Go", "Redis"}, svc.got)
	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, string(domain.RunCompleted), result.Status)
	assert.Contains(t, result.Markdown, "# Technology Overview")
}

func TestHandleGenerateAcceptsCommaSeparated(t *testing.T) {
	svc := &stubService{result: completedRun()}
	s := NewServer(svc, pipeline.Edges(false))

	_, err := s.handleGenerate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"technologies": "Go, Redis ,Docker",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Redis", "Docker"}, svc.got)
}

func TestHandleGenerateReportsFailedRun(t *testing.T) {
	svc := &stubService{result: &domain.Run{
		ID:     "run-2",
		Status: domain.RunFailed,
		Error:  `step "write" failed after 3 attempt(s): boom`,
	}}
	s := NewServer(svc, pipeline.Edges(false))

	_, err := s.handleGenerate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"technologies": []any{"Go"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run-2")
	assert.Contains(t, err.Error(), "boom")
}

func TestHandleGenerateRejectsBadInput(t *testing.T) {
	svc := &stubService{err: domain.ErrNoTechnologies}
	s := NewServer(svc, pipeline.Edges(false))

	_, err := s.handleGenerate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoTechnologies)
}

func TestStringList(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{name: "json array", in: []any{"Go", "Redis"}, want: []string{"Go", "Redis"}},
		{name: "string slice", in: []string{"Go"}, want: []string{"Go"}},
		{name: "comma separated", in: "Go,Redis, Docker", want: []string{"Go", "Redis", "Docker"}},
		{name: "blank entries dropped", in: " , Go ,", want: []string{"Go"}},
		{name: "nil", in: nil, want: nil},
		{name: "wrong type", in: 42, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stringList(tt.in))
		})
	}
}

func TestSummarizeOmitsDocumentBody(t *testing.T) {
	got := summarize(completedRun())
	assert.Equal(t, "run-1", got.ID)
	assert.True(t, got.HasDocument)
	assert.Equal(t, domain.RunCompleted, got.Status)
}
