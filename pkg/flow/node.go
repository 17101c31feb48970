package flow

import (
	"context"
	"time"

	"github.com/aretw0/scribe/pkg/domain"
)

// Node is one step of a flow. Implementations usually embed Base and
// override the phases they need.
//
// The contract between the phases and the run State:
//   - Prep derives a local input from the State and must not mutate it.
//   - Exec computes from the prep result alone and must not touch the State,
//     so retried attempts always work from freshly read inputs.
//   - Post writes the result to the State and picks the outgoing action.
type Node interface {
	Name() string

	// Actions is the closed set of actions Post may return.
	Actions() []Action

	// Retry returns the node's budget: total attempts (at least 1) and the
	// wait between attempts.
	Retry() (attempts int, wait time.Duration)

	Prep(ctx context.Context, state *domain.State) (any, error)
	Exec(ctx context.Context, prep any) (any, error)
	Post(ctx context.Context, state *domain.State, prep, exec any) (Action, error)
}

// Base provides the common node plumbing: name, retry budget, declared
// actions, and no-op phases. Embed it and override what the step needs.
type Base struct {
	name    string
	retries int
	wait    time.Duration
	actions []Action
}

// NodeOption configures a Base.
type NodeOption func(*Base)

// WithMaxRetries sets the total attempt budget. Values below 1 are clamped
// to 1 (a node always runs at least once).
func WithMaxRetries(n int) NodeOption {
	return func(b *Base) {
		if n < 1 {
			n = 1
		}
		b.retries = n
	}
}

// WithWait sets the sleep between attempts. Negative waits are clamped to 0.
func WithWait(d time.Duration) NodeOption {
	return func(b *Base) {
		if d < 0 {
			d = 0
		}
		b.wait = d
	}
}

// WithActions replaces the declared action set of the node.
func WithActions(actions ...Action) NodeOption {
	return func(b *Base) {
		b.actions = actions
	}
}

// NewBase creates the embeddable core of a node.
func NewBase(name string, opts ...NodeOption) Base {
	b := Base{
		name:    name,
		retries: 1,
		actions: []Action{ActionDefault},
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *Base) Name() string { return b.name }

func (b *Base) Actions() []Action { return b.actions }

func (b *Base) Retry() (int, time.Duration) { return b.retries, b.wait }

// Prep is a no-op by default: the node needs nothing from the State.
func (b *Base) Prep(ctx context.Context, state *domain.State) (any, error) {
	return nil, nil
}

// Exec is a no-op by default.
func (b *Base) Exec(ctx context.Context, prep any) (any, error) {
	return nil, nil
}

// Post writes nothing and does not branch by default.
func (b *Base) Post(ctx context.Context, state *domain.State, prep, exec any) (Action, error) {
	return ActionDefault, nil
}

// declares reports whether action is in the node's declared set.
func declares(n Node, action Action) bool {
	for _, a := range n.Actions() {
		if a == action {
			return true
		}
	}
	return false
}
