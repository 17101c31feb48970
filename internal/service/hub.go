package service

import (
	"context"
	"sync"

	"github.com/aretw0/scribe/pkg/domain"
)

// runIDKey stamps contexts with the run they belong to. Hooks receive the
// step's context and read the stamp back, so one engine can serve many runs
// while events still land with the right subscribers.
type runIDKey struct{}

// WithRunID tags ctx with a run identity.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run ID stamped on ctx, or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// subscriberBuffer bounds each subscriber's queue. A subscriber that falls
// behind loses events instead of stalling the pipeline.
const subscriberBuffer = 16

// Hub fans lifecycle events out to per-run subscribers. The HTTP server's
// event stream is one subscriber; tests are another.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan domain.NodeEvent]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan domain.NodeEvent]struct{})}
}

// Hooks returns lifecycle hooks that publish every event to the present
// subscribers of its run. Events from contexts without a run stamp are
// dropped.
func (h *Hub) Hooks() domain.LifecycleHooks {
	publish := func(ctx context.Context, ev *domain.NodeEvent) {
		id := RunIDFromContext(ctx)
		if id == "" {
			return
		}
		stamped := *ev
		stamped.RunID = id
		h.publish(stamped)
	}
	return domain.LifecycleHooks{
		OnNodeStart: publish,
		OnNodeEnd:   publish,
		OnNodeRetry: publish,
		OnRunEnd:    publish,
	}
}

func (h *Hub) publish(ev domain.NodeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[ev.RunID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers for one run's events. The returned cancel function
// removes the subscription and closes the channel; calling it twice is safe.
// A run's end is signaled by an event of type domain.EventRunEnd, not by the
// channel closing.
func (h *Hub) Subscribe(runID string) (<-chan domain.NodeEvent, func()) {
	ch := make(chan domain.NodeEvent, subscriberBuffer)

	h.mu.Lock()
	set := h.subs[runID]
	if set == nil {
		set = make(map[chan domain.NodeEvent]struct{})
		h.subs[runID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[runID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, runID)
				}
			}
			h.mu.Unlock()
			// No publisher can hold the channel now; closing is safe.
			close(ch)
		})
	}
	return ch, cancel
}
