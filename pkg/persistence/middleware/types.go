// Package middleware wraps a ports.RunStore with cross-cutting persistence
// behavior such as encryption at rest and redaction.
package middleware

import "github.com/aretw0/scribe/pkg/ports"

// Middleware allows wrapping a RunStore to add behavior.
type Middleware func(ports.RunStore) ports.RunStore

// Chain wraps store so the first middleware sees calls first:
// Chain(store, A, B) returns A(B(store)).
func Chain(store ports.RunStore, mws ...Middleware) ports.RunStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
