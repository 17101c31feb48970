package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/flow"
)

// mergeInput carries both branch results from Prep to Exec.
type mergeInput struct {
	Outline      domain.Outline
	Research     domain.Research
	Technologies []string
}

// mergeNode is the fan-in of the pipeline. In the parallel flow it owns the
// outline and research branches: Prep launches both against the shared state
// and waits for the pair under one deadline, so a run never proceeds on half
// the inputs and never waits forever. In the serial flow (nil branches) the
// results are already in the state and Prep just reads them.
type mergeNode struct {
	flow.Base

	outline  flow.Node
	research flow.Node
	hooks    domain.LifecycleHooks
	timeout  time.Duration
	strict   bool
	log      *slog.Logger
}

func newMerge(outline, research flow.Node, cfg Config, hooks domain.LifecycleHooks, log *slog.Logger) *mergeNode {
	return &mergeNode{
		Base: flow.NewBase("merge",
			flow.WithMaxRetries(cfg.Merge.Attempts),
			flow.WithWait(cfg.Merge.Wait),
		),
		outline:  outline,
		research: research,
		hooks:    hooks,
		timeout:  cfg.MergeTimeout,
		strict:   cfg.StrictResearch,
		log:      log,
	}
}

func (n *mergeNode) Prep(ctx context.Context, state *domain.State) (any, error) {
	if n.outline != nil && n.research != nil {
		n.log.Info("running outline and research branches", "timeout", n.timeout)
		err := flow.Join(ctx, n.timeout,
			flow.Branch{
				Name: "outline",
				Run: func(ctx context.Context) error {
					_, err := flow.RunNode(ctx, n.outline, state, n.hooks)
					return err
				},
				Done: func() bool {
					_, ok := state.Outline()
					return ok
				},
			},
			flow.Branch{
				Name: "research",
				Run: func(ctx context.Context) error {
					_, err := flow.RunNode(ctx, n.research, state, n.hooks)
					return err
				},
				Done: func() bool {
					_, ok := state.Research()
					return ok
				},
			},
		)
		if err != nil {
			return nil, err
		}
	}

	outline, ok := state.Outline()
	if !ok {
		return nil, fmt.Errorf("no outline to merge")
	}
	research, ok := state.Research()
	if !ok {
		return nil, fmt.Errorf("no research to merge")
	}
	return mergeInput{
		Outline:      outline,
		Research:     research,
		Technologies: state.Technologies(),
	}, nil
}

func (n *mergeNode) Exec(ctx context.Context, prep any) (any, error) {
	in := prep.(mergeInput)
	if err := in.Outline.Validate(); err != nil {
		return nil, err
	}
	if len(in.Research) == 0 {
		return nil, fmt.Errorf("research produced no findings")
	}
	if missing := in.Research.Missing(in.Technologies); len(missing) > 0 {
		if n.strict {
			return nil, fmt.Errorf("no research findings for: %s", strings.Join(missing, ", "))
		}
		for _, tech := range missing {
			n.log.Warn("no research findings", "technology", tech)
		}
	}
	return in, nil
}

func (n *mergeNode) Post(ctx context.Context, state *domain.State, prep, exec any) (flow.Action, error) {
	in := exec.(mergeInput)
	n.log.Info("merge complete",
		"outline", in.Outline.Title,
		"researched", len(in.Research),
	)
	return flow.ActionDefault, nil
}
