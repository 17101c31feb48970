package ports

import (
	"context"

	"github.com/aretw0/scribe/pkg/domain"
)

// RunStore persists run records for the service layer.
// Implementations must return copies: a caller mutating a returned run must
// not affect the stored record.
type RunStore interface {
	// Save creates or replaces the record under run.ID.
	Save(ctx context.Context, run *domain.Run) error

	// Get retrieves one run.
	// Returns domain.ErrRunNotFound if the ID does not exist.
	Get(ctx context.Context, id string) (*domain.Run, error)

	// List returns every stored run, newest first.
	List(ctx context.Context) ([]*domain.Run, error)

	// Delete removes a run. Deleting an unknown ID returns
	// domain.ErrRunNotFound.
	Delete(ctx context.Context, id string) error
}
