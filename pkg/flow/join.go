package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/scribe/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// Branch is one arm of a fan-out. Run executes the branch to completion;
// Done probes whether the branch's result has landed in the State, which
// lets a timed-out join name the branches still outstanding.
type Branch struct {
	Name string
	Run  func(ctx context.Context) error
	Done func() bool
}

// Join runs all branches concurrently and waits for every one of them,
// bounded by timeout (zero means no deadline). The first branch failure
// cancels its siblings and propagates. If the deadline elapses first, every
// branch is cancelled and the error is a domain.SyncTimeoutError naming the
// branches whose results are still missing. No work is left orphaned.
func Join(ctx context.Context, timeout time.Duration, branches ...Branch) error {
	if len(branches) == 0 {
		return nil
	}

	for _, br := range branches {
		if br.Run == nil {
			return fmt.Errorf("join: branch %q has no body", br.Name)
		}
	}

	joinCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		joinCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(joinCtx)
	for _, br := range branches {
		g.Go(func() error {
			if err := br.Run(gctx); err != nil {
				return fmt.Errorf("branch %q: %w", br.Name, err)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		return nil
	}
	// Only our own deadline counts as a synchronization timeout. A branch
	// failing with an unrelated deadline error (say an HTTP client timing
	// out) propagates as that branch's failure.
	if errors.Is(joinCtx.Err(), context.DeadlineExceeded) && errors.Is(err, context.DeadlineExceeded) {
		var missing []string
		for _, br := range branches {
			if br.Done == nil || !br.Done() {
				missing = append(missing, br.Name)
			}
		}
		if len(missing) == 0 {
			// Every result landed before the deadline interrupted the branch
			// bodies; that is not a synchronization failure.
			return err
		}
		return &domain.SyncTimeoutError{Missing: missing, Waited: time.Since(start)}
	}
	return err
}
