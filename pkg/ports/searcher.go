package ports

import "context"

// Searcher looks up a query on the web and returns a plain-text summary of
// the top results. An empty summary with a nil error means the search ran
// but found nothing; that is not a failure.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// SearcherFunc adapts a function to the Searcher interface.
type SearcherFunc func(ctx context.Context, query string) (string, error)

func (f SearcherFunc) Search(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}
