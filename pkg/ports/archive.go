package ports

import (
	"context"

	"github.com/aretw0/scribe/pkg/domain"
)

// Archive stores finished documents outside the run store, typically as
// files a human can open. Store returns where the document landed.
type Archive interface {
	Store(ctx context.Context, doc *domain.Document) (path string, err error)
}
