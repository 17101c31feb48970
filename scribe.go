package scribe

import (
	"context"
	"log/slog"

	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/internal/pipeline"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/flow"
	"github.com/aretw0/scribe/pkg/ports"
)

// Version identifies the build. Release binaries override it with
// -ldflags "-X github.com/aretw0/scribe.Version=...".
var Version = "0.1.0-dev"

// Engine is the high-level entry point for the library. It assembles the
// generation pipeline once; each Generate call runs it against a fresh state,
// so one Engine serves concurrent callers.
type Engine struct {
	flow   *flow.Flow
	serial bool
	cfg    pipeline.Config
	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks invoked for every step
// event: starts, retries, completions and the end of the run.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithPipelineConfig replaces every tuning knob at once: retry budgets,
// waits, the merge timeout, concurrency and token limits.
func WithPipelineConfig(cfg pipeline.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithSerial builds the sequential variant: outline, then research, one
// technology at a time. Slower, but every step is easy to follow in a log.
func WithSerial() Option {
	return func(e *Engine) {
		e.serial = true
	}
}

// New assembles an Engine around the two capabilities the pipeline consumes:
// text generation and web search.
func New(gen ports.Generator, search ports.Searcher, opts ...Option) (*Engine, error) {
	e := &Engine{cfg: pipeline.DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}

	deps := pipeline.Deps{
		Generator: gen,
		Searcher:  search,
		Log:       e.logger,
		Hooks:     e.hooks,
	}

	build := pipeline.Build
	if e.serial {
		build = pipeline.Serial
	}
	fl, err := build(deps, e.cfg)
	if err != nil {
		return nil, err
	}
	e.flow = fl
	return e, nil
}

// Generate runs the full pipeline for the given technologies and returns the
// finished document. The error taxonomy distinguishes bad input
// (domain.InputError), an exhausted step (domain.StepError), a merge that
// timed out (domain.SyncTimeoutError) and a document that failed its contract
// (domain.OutputError).
func (e *Engine) Generate(ctx context.Context, technologies []string) (*domain.Document, error) {
	state := domain.NewState(technologies)
	if err := e.flow.Run(ctx, state); err != nil {
		return nil, err
	}
	doc, ok := state.Document()
	if !ok {
		return nil, &domain.OutputError{Reason: "pipeline finished without producing a document"}
	}
	return &doc, nil
}

// Edges describes the step graph for visualization. The parallel variant
// reports the conceptual fan-out that the running flow coordinates inside
// its merge step.
func (e *Engine) Edges() []flow.Edge {
	return pipeline.Edges(e.serial)
}
