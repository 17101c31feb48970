/*
Package flow implements the step-graph execution engine that drives a scribe
run.

A Node is the atomic unit of work, with a three-phase lifecycle: Prep reads
its inputs from the run State, Exec computes (pure with respect to the
State), and Post writes the result back and selects a transition. Each node
carries its own retry budget; the engine retries Prep+Exec as a unit,
sleeping between attempts, and runs Post exactly once on success.

A Flow connects nodes by (node, Action) edges and drives execution from a
start node until a node with no matching outgoing edge completes. Actions
form a closed set per node: connecting or returning an action the node does
not declare is an error, not a silent stop.

ParallelBatch fans a node's Exec out concurrently over a collection, keying
results by item so association survives any completion order. Join runs
independent branches to completion under a shared deadline, cancelling the
survivors when one branch fails or the deadline elapses.
*/
package flow
