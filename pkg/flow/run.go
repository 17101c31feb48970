package flow

import (
	"context"
	"time"

	"github.com/aretw0/scribe/pkg/domain"
)

// RunNode executes one node's full lifecycle against the State, honoring its
// retry budget: Prep and Exec are retried as a unit up to the configured
// attempts with the configured wait in between, and Post runs exactly once,
// on the successful attempt. Failed attempts never reach Post, so the State
// sees either the node's complete write or nothing.
//
// When the budget is exhausted the last error is wrapped in a
// domain.StepError carrying the node name and attempt count.
func RunNode(ctx context.Context, n Node, state *domain.State, hooks domain.LifecycleHooks) (Action, error) {
	attempts, wait := n.Retry()
	if attempts < 1 {
		attempts = 1
	}

	start := time.Now()
	emit(ctx, hooks.OnNodeStart, &domain.NodeEvent{
		Timestamp: start,
		Type:      domain.EventNodeStart,
		Node:      n.Name(),
	})

	var (
		prep, result any
		err          error
		attempted    int
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		attempted = attempt
		if err = ctx.Err(); err != nil {
			break
		}
		prep, err = n.Prep(ctx, state)
		if err == nil {
			result, err = n.Exec(ctx, prep)
		}
		if err == nil {
			break
		}
		if attempt == attempts {
			break
		}
		emit(ctx, hooks.OnNodeRetry, &domain.NodeEvent{
			Timestamp: time.Now(),
			Type:      domain.EventNodeRetry,
			Node:      n.Name(),
			Attempt:   attempt,
			Err:       err.Error(),
		})
		if serr := sleepCtx(ctx, wait); serr != nil {
			err = serr
			break
		}
	}

	var action Action
	if err == nil {
		action, err = n.Post(ctx, state, prep, result)
		if err == nil && action == "" {
			action = ActionDefault
		}
	}

	end := &domain.NodeEvent{
		Timestamp: time.Now(),
		Type:      domain.EventNodeEnd,
		Node:      n.Name(),
		Attempt:   attempted,
		Duration:  time.Since(start),
	}
	if err != nil {
		end.Err = err.Error()
	}
	emit(ctx, hooks.OnNodeEnd, end)

	if err != nil {
		return "", &domain.StepError{Step: n.Name(), Attempts: attempted, Err: err}
	}
	return action, nil
}

func emit(ctx context.Context, hook func(context.Context, *domain.NodeEvent), ev *domain.NodeEvent) {
	if hook != nil {
		hook(ctx, ev)
	}
}

// sleepCtx waits for d or for the context, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
