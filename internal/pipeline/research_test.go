package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/flow"
	"github.com/aretw0/scribe/pkg/ports"
)

func TestResearchTechnology_JoinsSubQueries(t *testing.T) {
	var queries []string
	search := ports.SearcherFunc(func(ctx context.Context, query string) (string, error) {
		queries = append(queries, query)
		return "results for " + query, nil
	})

	got, err := researchTechnology(context.Background(), search, "Go", 0)
	require.NoError(t, err)

	require.Len(t, queries, 3)
	assert.Contains(t, queries[0], "Go latest version")
	assert.Contains(t, queries[1], "Go key features")
	assert.Contains(t, queries[2], "what is Go")

	assert.True(t, strings.HasPrefix(got, "Research results for Go:"), got)
	for _, q := range queries {
		assert.Contains(t, got, "results for "+q)
	}
}

func TestResearchTechnology_SkipsEmptySummaries(t *testing.T) {
	search := ports.SearcherFunc(func(ctx context.Context, query string) (string, error) {
		if strings.Contains(query, "latest version") {
			return "", nil
		}
		return "findings", nil
	})

	got, err := researchTechnology(context.Background(), search, "Go", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(got, "findings"))
}

func TestResearchTechnology_DelayBetweenQueries(t *testing.T) {
	search := ports.SearcherFunc(func(ctx context.Context, query string) (string, error) {
		return "ok", nil
	})

	start := time.Now()
	_, err := researchTechnology(context.Background(), search, "Go", 15*time.Millisecond)
	require.NoError(t, err)
	// Two pauses between three queries, none after the last.
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestResearchTechnology_CancelDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	search := ports.SearcherFunc(func(ctx context.Context, query string) (string, error) {
		cancel()
		return "ok", nil
	})

	_, err := researchTechnology(ctx, search, "Go", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResearchTechnology_SearchErrorStops(t *testing.T) {
	var calls int
	search := ports.SearcherFunc(func(ctx context.Context, query string) (string, error) {
		calls++
		return "", errors.New("rate limited")
	})

	_, err := researchTechnology(context.Background(), search, "Go", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, 1, calls, "a failed sub-query stops the technology's research")
}

func TestResearchNode_PostsFindingsPerTechnology(t *testing.T) {
	var mu sync.Mutex
	perTech := map[string]int{}
	search := ports.SearcherFunc(func(ctx context.Context, query string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		for _, tech := range []string{"Go", "Redis", "Kafka"} {
			if strings.Contains(query, tech) {
				perTech[tech]++
			}
		}
		return "summary: " + query, nil
	})

	cfg := DefaultConfig()
	cfg.SearchDelay = 0
	node := newResearch(search, cfg, logging.NewNop())

	state := domain.NewState([]string{"Go", "Redis", "Kafka"})
	_, err := flow.RunNode(context.Background(), node, state, domain.LifecycleHooks{})
	require.NoError(t, err)

	research, ok := state.Research()
	require.True(t, ok)
	require.Len(t, research, 3)
	for _, tech := range []string{"Go", "Redis", "Kafka"} {
		assert.Contains(t, research[tech], fmt.Sprintf("Research results for %s:", tech))
		assert.Equal(t, 3, perTech[tech], "each technology gets its three sub-queries")
	}
}

func TestResearchNode_ItemRetryThenSuccess(t *testing.T) {
	var mu sync.Mutex
	redisFailures := 0
	search := ports.SearcherFunc(func(ctx context.Context, query string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if strings.Contains(query, "Redis") && redisFailures == 0 {
			redisFailures++
			return "", errors.New("timeout")
		}
		return "ok", nil
	})

	cfg := DefaultConfig()
	cfg.SearchDelay = 0
	cfg.Research = Retry{Attempts: 2, Wait: 0}
	node := newResearch(search, cfg, logging.NewNop())

	state := domain.NewState([]string{"Go", "Redis"})
	_, err := flow.RunNode(context.Background(), node, state, domain.LifecycleHooks{})
	require.NoError(t, err)

	research, ok := state.Research()
	require.True(t, ok)
	assert.Len(t, research, 2, "the flaky technology recovers on its second attempt")
}

func TestResearchNode_ExhaustedItemFailsStep(t *testing.T) {
	search := ports.SearcherFunc(func(ctx context.Context, query string) (string, error) {
		if strings.Contains(query, "Redis") {
			return "", errors.New("blocked")
		}
		return "ok", nil
	})

	cfg := DefaultConfig()
	cfg.SearchDelay = 0
	cfg.Research = Retry{Attempts: 2, Wait: 0}
	node := newResearch(search, cfg, logging.NewNop())

	state := domain.NewState([]string{"Go", "Redis"})
	_, err := flow.RunNode(context.Background(), node, state, domain.LifecycleHooks{})

	var stepErr *domain.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "research", stepErr.Step)
	assert.Contains(t, err.Error(), "Redis")

	_, ok := state.Research()
	assert.False(t, ok, "failed research must leave no partial findings")
}
