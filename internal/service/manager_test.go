package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scribe/internal/pipeline"
	"github.com/aretw0/scribe/pkg/adapters/memory"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

const stubOutlineReply = "```yaml\n" +
	`title: "Technology Overview: Go"
sections:
  - name: "Introduction"
    subsections:
      - "Purpose of this document"
  - name: "Go"
    subsections:
      - "Overview"
      - "Key Features"
` + "```"

var stubDocumentReply = "# Technology Overview: Go\n\n" +
	strings.Repeat("Go is a statically typed language built for simple, reliable software. ", 4)

// stubGenerator answers the outline prompt with canned YAML and everything
// else with a canned document.
type stubGenerator struct {
	failOutline bool
	calls       atomic.Int64
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	g.calls.Add(1)
	if strings.Contains(prompt, "Create a comprehensive outline") {
		if g.failOutline {
			return "", errors.New("model unavailable")
		}
		return stubOutlineReply, nil
	}
	return stubDocumentReply, nil
}

type stubSearcher struct {
	block bool
}

func (s *stubSearcher) Search(ctx context.Context, query string) (string, error) {
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return "Search results for '" + query + "':\n\n1. A result\n", nil
}

// gatedSearcher holds every search until the gate opens, so a test can
// attach a subscriber before the run proceeds.
type gatedSearcher struct {
	gate chan struct{}
}

func (s *gatedSearcher) Search(ctx context.Context, query string) (string, error) {
	select {
	case <-s.gate:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return "Search results for '" + query + "':\n\n1. A result\n", nil
}

type stubArchive struct {
	stored atomic.Int64
}

func (a *stubArchive) Store(ctx context.Context, doc *domain.Document) (string, error) {
	a.stored.Add(1)
	return "archive/doc.md", nil
}

// fastConfig removes every wait so tests run in milliseconds.
func fastConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.Outline.Wait = 0
	cfg.Research.Wait = 0
	cfg.Merge.Wait = 0
	cfg.Write.Wait = 0
	cfg.SearchDelay = 0
	cfg.MergeTimeout = 5 * time.Second
	return cfg
}

func newTestManager(t *testing.T, deps Deps) *Manager {
	t.Helper()
	if deps.Generator == nil {
		deps.Generator = &stubGenerator{}
	}
	if deps.Searcher == nil {
		deps.Searcher = &stubSearcher{}
	}
	if deps.Store == nil {
		deps.Store = memory.NewStore()
	}
	if deps.Pipeline.MergeTimeout == 0 {
		deps.Pipeline = fastConfig()
	}
	m, err := NewManager(deps)
	require.NoError(t, err)
	return m
}

func TestManagerRunSynchronous(t *testing.T) {
	store := memory.NewStore()
	archive := &stubArchive{}
	m := newTestManager(t, Deps{Store: store, Archive: archive})

	run, err := m.Run(context.Background(), []string{" Go ", "go", ""})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(run.ID, "run_"), "run IDs carry the run_ prefix")
	assert.Equal(t, domain.RunCompleted, run.Status)
	assert.Equal(t, []string{"Go"}, run.Technologies, "input should be cleaned and deduplicated")
	require.NotNil(t, run.Document)
	assert.Contains(t, run.Document.Markdown, "# Technology Overview")
	assert.Equal(t, int64(1), archive.stored.Load(), "completed documents are archived")

	stored, err := store.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, stored.Status)
}

func TestManagerStartRunsInBackground(t *testing.T) {
	store := memory.NewStore()
	m := newTestManager(t, Deps{Store: store})

	run, err := m.Start(context.Background(), []string{"Go", "Redis"})
	require.NoError(t, err)
	assert.Equal(t, domain.RunPending, run.Status, "Start returns the pending snapshot")

	assert.Eventually(t, func() bool {
		stored, err := store.Get(context.Background(), run.ID)
		return err == nil && stored.Status == domain.RunCompleted
	}, 5*time.Second, 10*time.Millisecond, "background run should reach a terminal status")

	require.NoError(t, m.Shutdown(context.Background()))
}

func TestManagerRejectsBadInput(t *testing.T) {
	store := memory.NewStore()
	m := newTestManager(t, Deps{Store: store})

	_, err := m.Start(context.Background(), []string{"  ", ""})
	assert.ErrorIs(t, err, domain.ErrNoTechnologies)

	tooMany := make([]string, 11)
	for i := range tooMany {
		tooMany[i] = strings.Repeat("x", i+1)
	}
	_, err = m.Start(context.Background(), tooMany)
	var inputErr *domain.InputError
	assert.ErrorAs(t, err, &inputErr)

	runs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs, "rejected input must not leave run records behind")
}

func TestManagerRecordsFailure(t *testing.T) {
	store := memory.NewStore()
	m := newTestManager(t, Deps{
		Store:     store,
		Generator: &stubGenerator{failOutline: true},
	})

	run, err := m.Run(context.Background(), []string{"Go"})
	require.NoError(t, err, "pipeline failures surface in the record, not the error")
	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Contains(t, run.Error, "outline")

	stored, err := store.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, stored.Status)
}

func TestManagerStreamsEvents(t *testing.T) {
	gate := make(chan struct{})
	m := newTestManager(t, Deps{Searcher: &gatedSearcher{gate: gate}})

	run, err := m.Start(context.Background(), []string{"Go"})
	require.NoError(t, err)

	// The run is parked inside its research step until the gate opens, so
	// this subscription cannot miss the remaining events.
	events, cancel := m.Subscribe(run.ID)
	defer cancel()
	close(gate)

	var seen []domain.EventType
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			assert.Equal(t, run.ID, ev.RunID)
			seen = append(seen, ev.Type)
			if ev.Type == domain.EventRunEnd {
				assert.Contains(t, seen, domain.EventNodeEnd, "step completions should stream before run_end")
				require.NoError(t, m.Shutdown(context.Background()))
				return
			}
		case <-deadline:
			t.Fatal("did not observe run_end")
		}
	}
}

func TestManagerShutdownCancelsStragglers(t *testing.T) {
	store := memory.NewStore()
	m := newTestManager(t, Deps{
		Store:    store,
		Searcher: &stubSearcher{block: true},
	})

	run, err := m.Start(context.Background(), []string{"Go"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err = m.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The canceled run still got its terminal status recorded.
	stored, err := store.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, stored.Status)
	assert.NotEmpty(t, stored.Error)
}

func TestManagerGetListDelete(t *testing.T) {
	m := newTestManager(t, Deps{})
	ctx := context.Background()

	run, err := m.Run(ctx, []string{"Go"})
	require.NoError(t, err)

	got, err := m.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)

	runs, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	require.NoError(t, m.Delete(ctx, run.ID))
	_, err = m.Get(ctx, run.ID)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

var _ ports.Archive = (*stubArchive)(nil)
