package pipeline

import (
	"context"
	"log/slog"

	"github.com/aretw0/scribe/internal/validator"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/flow"
)

// prepareNode cleans the technology list before anything downstream touches
// it. Cleaning is idempotent: running it on an already-clean list changes
// nothing.
type prepareNode struct {
	flow.Base
	max int
	log *slog.Logger
}

func newPrepare(cfg Config, log *slog.Logger) *prepareNode {
	return &prepareNode{
		Base: flow.NewBase("prepare",
			flow.WithMaxRetries(cfg.Prepare.Attempts),
			flow.WithWait(cfg.Prepare.Wait),
		),
		max: cfg.MaxTechnologies,
		log: log,
	}
}

func (n *prepareNode) Prep(ctx context.Context, state *domain.State) (any, error) {
	return state.Technologies(), nil
}

func (n *prepareNode) Exec(ctx context.Context, prep any) (any, error) {
	raw, _ := prep.([]string)
	return validator.CleanTechnologies(raw, n.max)
}

func (n *prepareNode) Post(ctx context.Context, state *domain.State, prep, exec any) (flow.Action, error) {
	cleaned := exec.([]string)
	state.SetTechnologies(cleaned)
	n.log.Info("technologies prepared", "count", len(cleaned))
	return flow.ActionDefault, nil
}
