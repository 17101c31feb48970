// Package service coordinates document generation runs: identity,
// persistence, asynchronous execution and event streaming. Transports (HTTP,
// MCP) call the Manager instead of the engine so run bookkeeping stays in one
// place.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/aretw0/scribe"
	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/internal/pipeline"
	"github.com/aretw0/scribe/internal/validator"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/observability"
	"github.com/aretw0/scribe/pkg/ports"
)

// Deps wires a Manager. Generator, Searcher and Store are required; the rest
// is optional.
type Deps struct {
	Generator ports.Generator
	Searcher  ports.Searcher
	Store     ports.RunStore

	// Archive additionally lands every completed document on disk.
	Archive ports.Archive

	// Metrics hooks pipeline events into Prometheus when set.
	Metrics *observability.Metrics

	Logger   *slog.Logger
	Pipeline pipeline.Config
	Serial   bool
}

// Manager owns the run lifecycle. Start launches a run in the background;
// Run drives one synchronously. Both record every status transition in the
// store and stream step events through the hub.
type Manager struct {
	engine   *scribe.Engine
	store    ports.RunStore
	archive  ports.Archive
	hub      *Hub
	logger   *slog.Logger
	maxTechs int

	runCtx     context.Context
	cancelRuns context.CancelFunc
	wg         sync.WaitGroup
}

// NewManager assembles the engine with the hub's (and optionally the
// metrics') hooks installed and returns a Manager ready to accept runs.
func NewManager(deps Deps) (*Manager, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("service: nil run store")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	hub := NewHub()
	hooks := hub.Hooks()
	if deps.Metrics != nil {
		hooks = hooks.Merge(deps.Metrics.Hooks())
	}

	opts := []scribe.Option{
		scribe.WithLogger(logger),
		scribe.WithLifecycleHooks(hooks),
		scribe.WithPipelineConfig(deps.Pipeline),
	}
	if deps.Serial {
		opts = append(opts, scribe.WithSerial())
	}
	engine, err := scribe.New(deps.Generator, deps.Searcher, opts...)
	if err != nil {
		return nil, err
	}

	maxTechs := deps.Pipeline.MaxTechnologies
	if maxTechs <= 0 {
		maxTechs = pipeline.DefaultConfig().MaxTechnologies
	}

	// Async runs outlive their originating request, so they hang off this
	// context rather than the request's.
	runCtx, cancelRuns := context.WithCancel(context.Background())

	return &Manager{
		engine:     engine,
		store:      deps.Store,
		archive:    deps.Archive,
		hub:        hub,
		logger:     logger,
		maxTechs:   maxTechs,
		runCtx:     runCtx,
		cancelRuns: cancelRuns,
	}, nil
}

// Start validates the input, records a pending run and launches it in the
// background. The returned record is the pending snapshot; poll Get or
// Subscribe for progress.
func (m *Manager) Start(ctx context.Context, technologies []string) (*domain.Run, error) {
	run, err := m.create(ctx, technologies)
	if err != nil {
		return nil, err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.execute(WithRunID(m.runCtx, run.ID), run.Clone())
	}()
	return run, nil
}

// Run drives one run synchronously and returns its terminal record. The
// error covers run creation only; a pipeline failure comes back as a record
// with status failed and the error text filled in.
func (m *Manager) Run(ctx context.Context, technologies []string) (*domain.Run, error) {
	run, err := m.create(ctx, technologies)
	if err != nil {
		return nil, err
	}

	m.wg.Add(1)
	defer m.wg.Done()
	return m.execute(WithRunID(ctx, run.ID), run), nil
}

// Get returns one run record.
func (m *Manager) Get(ctx context.Context, id string) (*domain.Run, error) {
	return m.store.Get(ctx, id)
}

// List returns all run records, newest first.
func (m *Manager) List(ctx context.Context) ([]*domain.Run, error) {
	return m.store.List(ctx)
}

// Delete removes a run record.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}

// Subscribe streams one run's step events. See Hub.Subscribe.
func (m *Manager) Subscribe(runID string) (<-chan domain.NodeEvent, func()) {
	return m.hub.Subscribe(runID)
}

// Shutdown waits for in-flight runs to finish. When ctx expires first, the
// runs are canceled and Shutdown still waits for them to unwind, so no
// goroutine outlives the manager.
func (m *Manager) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		m.cancelRuns()
		<-done
		return ctx.Err()
	}
}

// create validates the technologies and reserves a pending run record.
func (m *Manager) create(ctx context.Context, technologies []string) (*domain.Run, error) {
	cleaned, err := validator.CleanTechnologies(technologies, m.maxTechs)
	if err != nil {
		return nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}

	now := time.Now().UTC()
	run := &domain.Run{
		ID:           "run_" + id,
		Status:       domain.RunPending,
		Technologies: cleaned,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.store.Save(ctx, run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	m.logger.Info("run created", "run_id", run.ID, "technologies", cleaned)
	return run, nil
}

// execute drives one run to a terminal status and returns the terminal
// record. Persistence failures along the way are logged, not returned: the
// run's outcome matters more than the bookkeeping.
func (m *Manager) execute(ctx context.Context, run *domain.Run) *domain.Run {
	run.Status = domain.RunRunning
	m.persist(ctx, run)

	doc, err := m.engine.Generate(ctx, run.Technologies)
	if err != nil {
		run.Status = domain.RunFailed
		run.Error = err.Error()
		m.logger.Error("run failed", "run_id", run.ID, "err", err)
	} else {
		run.Status = domain.RunCompleted
		run.Document = doc
		m.logger.Info("run completed", "run_id", run.ID, "document_bytes", len(doc.Markdown))

		if m.archive != nil {
			if path, aerr := m.archive.Store(ctx, doc); aerr != nil {
				m.logger.Warn("archive write failed", "run_id", run.ID, "err", aerr)
			} else {
				m.logger.Info("document archived", "run_id", run.ID, "path", path)
			}
		}
	}

	m.persist(ctx, run)
	return run
}

// persist saves the run's current shape. The save context is detached from
// cancellation so a canceled run still gets its terminal status recorded.
func (m *Manager) persist(ctx context.Context, run *domain.Run) {
	run.UpdatedAt = time.Now().UTC()
	if err := m.store.Save(context.WithoutCancel(ctx), run); err != nil {
		m.logger.Error("failed to save run", "run_id", run.ID, "err", err)
	}
}
