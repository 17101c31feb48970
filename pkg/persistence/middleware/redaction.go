package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

const redactedMark = "***"

type redactionMiddleware struct {
	next     ports.RunStore
	patterns []*regexp.Regexp
}

// NewRedaction creates a middleware that masks every match of the given
// regular expressions in a run's error text and document body before the run
// is persisted. Redaction is one-way: reads return the stored, masked text.
// Invalid patterns panic at construction.
func NewRedaction(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.RunStore) ports.RunStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactionMiddleware) Save(ctx context.Context, run *domain.Run) error {
	// Clone first; the caller's run keeps its unmasked text.
	cloned := run.Clone()
	cloned.Error = m.mask(cloned.Error)
	if cloned.Document != nil {
		cloned.Document.Markdown = m.mask(cloned.Document.Markdown)
	}
	return m.next.Save(ctx, cloned)
}

func (m *redactionMiddleware) Get(ctx context.Context, id string) (*domain.Run, error) {
	return m.next.Get(ctx, id)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]*domain.Run, error) {
	return m.next.List(ctx)
}

func (m *redactionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *redactionMiddleware) mask(s string) string {
	if s == "" {
		return s
	}
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, redactedMark)
	}
	return s
}
