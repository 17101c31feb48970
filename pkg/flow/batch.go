package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/scribe/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// ParallelBatch is a node whose Exec fans out concurrently over a collection
// of items. PrepItems reads the collection from the State, ExecItem computes
// one item's result, and PostBatch receives the complete result map keyed by
// item, so association is preserved no matter which item finishes first.
//
// The retry budget configured on the node applies to each item
// independently; the batch as a whole is never re-run. The first item to
// exhaust its budget cancels the remaining items and fails the batch, so a
// failed item is never silently dropped.
type ParallelBatch[Item comparable, Result any] struct {
	Base

	PrepItems func(ctx context.Context, state *domain.State) ([]Item, error)
	ExecItem  func(ctx context.Context, item Item) (Result, error)
	PostBatch func(ctx context.Context, state *domain.State, results map[Item]Result) (Action, error)

	// Limit caps how many items run at once. Zero means no cap.
	Limit int
}

// NewParallelBatch creates a batch node. Items must be unique: results are
// keyed by item identity.
func NewParallelBatch[Item comparable, Result any](name string, opts ...NodeOption) *ParallelBatch[Item, Result] {
	return &ParallelBatch[Item, Result]{Base: NewBase(name, opts...)}
}

// Retry reports a budget of one: batch-level failures are terminal. The
// configured budget is consumed per item inside Exec.
func (b *ParallelBatch[Item, Result]) Retry() (int, time.Duration) {
	return 1, 0
}

func (b *ParallelBatch[Item, Result]) Prep(ctx context.Context, state *domain.State) (any, error) {
	if b.PrepItems == nil {
		return []Item(nil), nil
	}
	return b.PrepItems(ctx, state)
}

func (b *ParallelBatch[Item, Result]) Exec(ctx context.Context, prep any) (any, error) {
	items, ok := prep.([]Item)
	if !ok && prep != nil {
		return nil, fmt.Errorf("batch %q: prep produced %T, want a slice of items", b.Name(), prep)
	}

	results := make(map[Item]Result, len(items))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if b.Limit > 0 {
		g.SetLimit(b.Limit)
	}
	for _, item := range items {
		g.Go(func() error {
			res, err := b.execItem(gctx, item)
			if err != nil {
				return fmt.Errorf("item %v: %w", item, err)
			}
			mu.Lock()
			results[item] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// execItem applies the node's retry budget to a single item.
func (b *ParallelBatch[Item, Result]) execItem(ctx context.Context, item Item) (Result, error) {
	var zero Result
	if b.ExecItem == nil {
		return zero, fmt.Errorf("batch %q has no ExecItem", b.Name())
	}

	attempts, wait := b.Base.Retry()
	var (
		res Result
		err error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return zero, err
		}
		res, err = b.ExecItem(ctx, item)
		if err == nil {
			return res, nil
		}
		if attempt == attempts {
			break
		}
		if serr := sleepCtx(ctx, wait); serr != nil {
			return zero, serr
		}
	}
	return zero, err
}

func (b *ParallelBatch[Item, Result]) Post(ctx context.Context, state *domain.State, prep, exec any) (Action, error) {
	if b.PostBatch == nil {
		return ActionDefault, nil
	}
	results, _ := exec.(map[Item]Result)
	return b.PostBatch(ctx, state, results)
}
