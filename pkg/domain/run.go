package domain

import "time"

// RunStatus defines the lifecycle of a service-level run record.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is the record a server keeps for one generation request. It is service
// bookkeeping, not engine state: the engine's State lives and dies inside a
// single run and is never persisted.
type Run struct {
	ID           string    `json:"id"`
	Status       RunStatus `json:"status"`
	Technologies []string  `json:"technologies"`
	Document     *Document `json:"document,omitempty"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Sealed carries the encrypted payload when a store middleware protects
	// the run at rest. Plain records leave it empty.
	Sealed []byte `json:"sealed,omitempty"`
}

// Clone returns a deep copy of the run, so stores can hand records out
// without aliasing their internal state.
func (r *Run) Clone() *Run {
	if r == nil {
		return nil
	}
	out := *r
	out.Technologies = append([]string(nil), r.Technologies...)
	out.Sealed = append([]byte(nil), r.Sealed...)
	if r.Document != nil {
		doc := *r.Document
		doc.Technologies = append([]string(nil), r.Document.Technologies...)
		out.Document = &doc
	}
	return &out
}
