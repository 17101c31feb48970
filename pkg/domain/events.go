package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventNodeStart EventType = "node_start"
	EventNodeEnd   EventType = "node_end"
	EventNodeRetry EventType = "node_retry"
	EventRunEnd    EventType = "run_end"
)

// NodeEvent describes one lifecycle moment of a step during a run.
type NodeEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Type      EventType     `json:"type"`
	RunID     string        `json:"run_id,omitempty"`
	Node      string        `json:"node"`
	Attempt   int           `json:"attempt,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       string        `json:"err,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability. Any field may
// be nil; the engine skips nil hooks. Hooks run synchronously on the step's
// goroutine and must not block.
type LifecycleHooks struct {
	OnNodeStart func(context.Context, *NodeEvent)
	OnNodeEnd   func(context.Context, *NodeEvent)
	OnNodeRetry func(context.Context, *NodeEvent)
	OnRunEnd    func(context.Context, *NodeEvent)
}

// Merge returns hooks that invoke h and then other for every event. Useful
// for stacking metrics on top of streaming.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeStart: chain(h.OnNodeStart, other.OnNodeStart),
		OnNodeEnd:   chain(h.OnNodeEnd, other.OnNodeEnd),
		OnNodeRetry: chain(h.OnNodeRetry, other.OnNodeRetry),
		OnRunEnd:    chain(h.OnRunEnd, other.OnRunEnd),
	}
}

func chain(a, b func(context.Context, *NodeEvent)) func(context.Context, *NodeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, ev *NodeEvent) {
		a(ctx, ev)
		b(ctx, ev)
	}
}
