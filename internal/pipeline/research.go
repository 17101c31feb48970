package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/flow"
	"github.com/aretw0/scribe/pkg/ports"
)

// newResearch builds the fan-out step that researches every technology
// concurrently. Each technology is one batch item; the retry budget applies
// per technology.
func newResearch(search ports.Searcher, cfg Config, log *slog.Logger) *flow.ParallelBatch[string, string] {
	batch := flow.NewParallelBatch[string, string]("research",
		flow.WithMaxRetries(cfg.Research.Attempts),
		flow.WithWait(cfg.Research.Wait),
	)
	batch.Limit = cfg.MaxConcurrentResearch

	batch.PrepItems = func(ctx context.Context, state *domain.State) ([]string, error) {
		techs := state.Technologies()
		if len(techs) == 0 {
			return nil, domain.ErrNoTechnologies
		}
		return techs, nil
	}
	batch.ExecItem = func(ctx context.Context, tech string) (string, error) {
		return researchTechnology(ctx, search, tech, cfg.SearchDelay)
	}
	batch.PostBatch = func(ctx context.Context, state *domain.State, results map[string]string) (flow.Action, error) {
		state.SetResearch(domain.Research(results))
		log.Info("research completed", "technologies", len(results))
		return flow.ActionDefault, nil
	}
	return batch
}

// researchTechnology issues the sub-queries for one technology and joins the
// summaries, pausing between queries so the search engine is not hammered.
// Queries that find nothing contribute nothing; the technology still counts
// as researched.
func researchTechnology(ctx context.Context, search ports.Searcher, tech string, delay time.Duration) (string, error) {
	var parts []string
	for i, query := range researchQueries(tech) {
		if i > 0 && delay > 0 {
			if err := pause(ctx, delay); err != nil {
				return "", err
			}
		}
		summary, err := search.Search(ctx, query)
		if err != nil {
			return "", fmt.Errorf("search %q: %w", query, err)
		}
		if summary != "" {
			parts = append(parts, summary)
		}
	}
	return fmt.Sprintf("Research results for %s:\n\n%s", tech, strings.Join(parts, "\n")), nil
}

func pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
