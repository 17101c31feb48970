package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/flow"
	"github.com/aretw0/scribe/pkg/ports"
)

// writeInput is the assembled prompt material for the final document.
type writeInput struct {
	OutlineYAML  string
	Research     domain.Research
	Technologies []string
}

// writeNode turns the outline and findings into the final markdown document.
// The output contract is checked in Exec: a reply that is too short or has
// no heading consumes a retry and the model is asked again.
type writeNode struct {
	flow.Base
	gen       ports.Generator
	maxTokens int
	log       *slog.Logger
}

func newWrite(gen ports.Generator, cfg Config, log *slog.Logger) *writeNode {
	return &writeNode{
		Base: flow.NewBase("write",
			flow.WithMaxRetries(cfg.Write.Attempts),
			flow.WithWait(cfg.Write.Wait),
		),
		gen:       gen,
		maxTokens: cfg.DocumentMaxTokens,
		log:       log,
	}
}

func (n *writeNode) Prep(ctx context.Context, state *domain.State) (any, error) {
	outline, ok := state.Outline()
	if !ok {
		return nil, fmt.Errorf("no outline to write from")
	}
	research, ok := state.Research()
	if !ok {
		return nil, fmt.Errorf("no research to write from")
	}
	outlineYAML, err := yaml.Marshal(outline)
	if err != nil {
		return nil, fmt.Errorf("encode outline: %w", err)
	}
	return writeInput{
		OutlineYAML:  string(outlineYAML),
		Research:     research,
		Technologies: state.Technologies(),
	}, nil
}

func (n *writeNode) Exec(ctx context.Context, prep any) (any, error) {
	in := prep.(writeInput)
	prompt := writePrompt(in.OutlineYAML, researchSummary(in.Technologies, in.Research))

	reply, err := n.gen.Generate(ctx, prompt, n.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("document generation: %w", err)
	}

	doc := domain.Document{
		Markdown:     strings.TrimSpace(reply),
		Technologies: in.Technologies,
		GeneratedAt:  time.Now().UTC(),
	}
	if err := doc.Validate(); err != nil {
		return nil, &domain.OutputError{Reason: err.Error()}
	}
	return doc, nil
}

func (n *writeNode) Post(ctx context.Context, state *domain.State, prep, exec any) (flow.Action, error) {
	doc := exec.(domain.Document)
	state.SetDocument(doc)
	n.log.Info("document generated", "chars", len(doc.Markdown))
	return flow.ActionDefault, nil
}

// researchSummary renders the findings blocks in technology order, so the
// prompt is stable for a given run.
func researchSummary(techs []string, research domain.Research) string {
	var b strings.Builder
	for _, tech := range techs {
		findings, ok := research[tech]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n=== %s Research ===\n%s\n", tech, findings)
	}
	return b.String()
}
