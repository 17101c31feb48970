package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/flow"
	"github.com/aretw0/scribe/pkg/ports"
)

// outlineNode asks the generator for a structured document plan. Parsing and
// validation happen in Exec so a malformed reply consumes a retry and gets
// re-prompted.
type outlineNode struct {
	flow.Base
	gen       ports.Generator
	maxTokens int
	log       *slog.Logger
}

func newOutline(gen ports.Generator, cfg Config, log *slog.Logger) *outlineNode {
	return &outlineNode{
		Base: flow.NewBase("outline",
			flow.WithMaxRetries(cfg.Outline.Attempts),
			flow.WithWait(cfg.Outline.Wait),
		),
		gen:       gen,
		maxTokens: cfg.OutlineMaxTokens,
		log:       log,
	}
}

func (n *outlineNode) Prep(ctx context.Context, state *domain.State) (any, error) {
	techs := state.Technologies()
	if len(techs) == 0 {
		return nil, domain.ErrNoTechnologies
	}
	return techs, nil
}

func (n *outlineNode) Exec(ctx context.Context, prep any) (any, error) {
	techs := prep.([]string)
	reply, err := n.gen.Generate(ctx, outlinePrompt(techs), n.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("outline generation: %w", err)
	}
	return parseOutline(reply)
}

func (n *outlineNode) Post(ctx context.Context, state *domain.State, prep, exec any) (flow.Action, error) {
	outline := exec.(domain.Outline)
	state.SetOutline(outline)
	n.log.Info("outline generated", "title", outline.Title, "sections", len(outline.Sections))
	return flow.ActionDefault, nil
}

// parseOutline decodes a model reply into a validated outline. The reply may
// wrap the YAML in a fence or answer with bare YAML.
func parseOutline(reply string) (domain.Outline, error) {
	var raw map[string]any
	if err := yaml.Unmarshal([]byte(extractYAML(reply)), &raw); err != nil {
		return domain.Outline{}, fmt.Errorf("outline reply is not valid yaml: %w", err)
	}

	var outline domain.Outline
	if err := mapstructure.Decode(raw, &outline); err != nil {
		return domain.Outline{}, fmt.Errorf("outline reply has unexpected shape: %w", err)
	}
	if err := outline.Validate(); err != nil {
		return domain.Outline{}, err
	}
	return outline, nil
}
