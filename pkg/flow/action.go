package flow

// Action identifies which outgoing edge a node selects when it completes.
// Every node declares the closed set of actions it may return; the Flow
// rejects edges and transitions outside that set.
type Action string

const (
	// ActionDefault is returned by nodes that do not branch.
	ActionDefault Action = "default"

	// ActionEnd terminates the flow regardless of remaining edges.
	ActionEnd Action = "end"
)

// ActionOf declares a custom action for branching nodes.
func ActionOf(name string) Action {
	return Action(name)
}
