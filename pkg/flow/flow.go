package flow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/scribe/pkg/domain"
)

// ErrUnknownAction is returned when a node selects an action that has no
// matching edge even though the node has outgoing edges, or when an edge is
// declared for an action outside the node's set.
var ErrUnknownAction = errors.New("unknown action")

// ErrDuplicateEdge is returned when two edges are connected for the same
// (node, action) pair.
var ErrDuplicateEdge = errors.New("duplicate edge")

// Edge is one (source, action) → destination connection, as reported by
// Inspect.
type Edge struct {
	From string
	On   Action
	To   string
}

// Flow is a directed graph of nodes driven to completion from a start node.
// The driver holds no retry logic of its own: retries belong to the nodes.
type Flow struct {
	start Node
	nodes map[string]Node
	edges map[string]map[Action]Node
	hooks domain.LifecycleHooks
}

// Option configures a Flow.
type Option func(*Flow)

// WithHooks installs lifecycle callbacks invoked for every node the flow
// runs.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(f *Flow) {
		f.hooks = hooks
	}
}

// New creates a flow starting at start.
func New(start Node, opts ...Option) *Flow {
	f := &Flow{
		start: start,
		nodes: make(map[string]Node),
		edges: make(map[string]map[Action]Node),
	}
	if start != nil {
		f.nodes[start.Name()] = start
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Connect adds the edge (from, on) → to. The action must belong to the
// source node's declared set, and a (node, action) pair can be wired only
// once.
func (f *Flow) Connect(from Node, on Action, to Node) error {
	if from == nil || to == nil {
		return fmt.Errorf("connect: nil node")
	}
	if !declares(from, on) {
		return fmt.Errorf("connect %s -[%s]-> %s: %w", from.Name(), on, to.Name(), ErrUnknownAction)
	}
	outgoing := f.edges[from.Name()]
	if outgoing == nil {
		outgoing = make(map[Action]Node)
		f.edges[from.Name()] = outgoing
	}
	if _, exists := outgoing[on]; exists {
		return fmt.Errorf("connect %s -[%s]-> %s: %w", from.Name(), on, to.Name(), ErrDuplicateEdge)
	}
	outgoing[on] = to
	f.nodes[from.Name()] = from
	f.nodes[to.Name()] = to
	return nil
}

// Run drives the flow from its start node until a terminal node completes.
// A node failure aborts the run and propagates; there is no skip-and-continue.
func (f *Flow) Run(ctx context.Context, state *domain.State) error {
	if f.start == nil {
		return fmt.Errorf("flow has no start node")
	}
	if state == nil {
		return fmt.Errorf("flow run: nil state")
	}

	var runErr error
	current := f.start
	for current != nil {
		action, err := RunNode(ctx, current, state, f.hooks)
		if err != nil {
			runErr = err
			break
		}
		if action == ActionEnd {
			break
		}
		next, ok := f.edges[current.Name()][action]
		if !ok {
			if len(f.edges[current.Name()]) > 0 {
				runErr = fmt.Errorf("node %q selected action %q with no edge: %w", current.Name(), action, ErrUnknownAction)
			}
			// A node with no outgoing edges ends the flow.
			break
		}
		current = next
	}

	end := &domain.NodeEvent{
		Timestamp: time.Now(),
		Type:      domain.EventRunEnd,
	}
	if runErr != nil {
		end.Err = runErr.Error()
	}
	emit(ctx, f.hooks.OnRunEnd, end)
	return runErr
}

// Start returns the name of the start node.
func (f *Flow) Start() string {
	if f.start == nil {
		return ""
	}
	return f.start.Name()
}

// Inspect returns every edge of the graph in deterministic order.
func (f *Flow) Inspect() []Edge {
	var out []Edge
	for from, outgoing := range f.edges {
		for on, to := range outgoing {
			out = append(out, Edge{From: from, On: on, To: to.Name()})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].On < out[j].On
	})
	return out
}

// Nodes returns the names of every node reachable through declared edges,
// sorted.
func (f *Flow) Nodes() []string {
	names := make([]string, 0, len(f.nodes))
	for name := range f.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
