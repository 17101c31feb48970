package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/flow"
	"github.com/aretw0/scribe/pkg/ports"
)

// Deps are the pipeline's collaborators. Generator and Searcher are
// required; Log defaults to a no-op logger and Hooks to no callbacks.
type Deps struct {
	Generator ports.Generator
	Searcher  ports.Searcher
	Log       *slog.Logger
	Hooks     domain.LifecycleHooks
}

func (d Deps) validate() error {
	if d.Generator == nil {
		return fmt.Errorf("pipeline: nil generator")
	}
	if d.Searcher == nil {
		return fmt.Errorf("pipeline: nil searcher")
	}
	return nil
}

func (d Deps) logger() *slog.Logger {
	if d.Log == nil {
		return logging.NewNop()
	}
	return d.Log
}

// Build assembles the parallel flow: prepare → merge → write, where the
// merge step owns the concurrent outline and research branches.
func Build(deps Deps, cfg Config) (*flow.Flow, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	log := deps.logger()

	prepare := newPrepare(cfg, log)
	outline := newOutline(deps.Generator, cfg, log)
	research := newResearch(deps.Searcher, cfg, log)
	merge := newMerge(outline, research, cfg, deps.Hooks, log)
	write := newWrite(deps.Generator, cfg, log)

	fl := flow.New(prepare, flow.WithHooks(deps.Hooks))
	if err := fl.Connect(prepare, flow.ActionDefault, merge); err != nil {
		return nil, err
	}
	if err := fl.Connect(merge, flow.ActionDefault, write); err != nil {
		return nil, err
	}
	return fl, nil
}

// Serial assembles the one-step-at-a-time variant: prepare → outline →
// research → merge → write. Same steps, no fan-out; the merge reduces to
// validation of what the earlier steps left in the state.
func Serial(deps Deps, cfg Config) (*flow.Flow, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	log := deps.logger()

	prepare := newPrepare(cfg, log)
	outline := newOutline(deps.Generator, cfg, log)
	research := newResearch(deps.Searcher, cfg, log)
	merge := newMerge(nil, nil, cfg, deps.Hooks, log)
	write := newWrite(deps.Generator, cfg, log)

	fl := flow.New(prepare, flow.WithHooks(deps.Hooks))
	steps := []flow.Node{prepare, outline, research, merge, write}
	for i := 0; i < len(steps)-1; i++ {
		if err := fl.Connect(steps[i], flow.ActionDefault, steps[i+1]); err != nil {
			return nil, err
		}
	}
	return fl, nil
}

// Edges describes the conceptual step graph for rendering, including the
// fan-out the parallel flow hides inside its merge step.
func Edges(serial bool) []flow.Edge {
	if serial {
		return []flow.Edge{
			{From: "prepare", On: flow.ActionDefault, To: "outline"},
			{From: "outline", On: flow.ActionDefault, To: "research"},
			{From: "research", On: flow.ActionDefault, To: "merge"},
			{From: "merge", On: flow.ActionDefault, To: "write"},
		}
	}
	return []flow.Edge{
		{From: "prepare", On: flow.ActionDefault, To: "outline"},
		{From: "prepare", On: flow.ActionDefault, To: "research"},
		{From: "outline", On: flow.ActionDefault, To: "merge"},
		{From: "research", On: flow.ActionDefault, To: "merge"},
		{From: "merge", On: flow.ActionDefault, To: "write"},
	}
}
