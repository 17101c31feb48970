package domain

import "sync"

// Well-known state keys. Steps communicate exclusively through these; the
// generic accessors exist for engine-level code and tests.
const (
	KeyTechnologies = "technologies"
	KeyOutline      = "outline"
	KeyResearch     = "research_results"
	KeyDocument     = "final_document"
)

// State is the mutable context of a single pipeline run. It is created once
// per run, mutated by each step's output phase, and discarded when the run
// ends. All access is synchronized: the outline and research branches run
// concurrently against the same State, and each owns a disjoint region
// exposed through its typed accessors.
type State struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewState creates a run state seeded with the technology list and empty
// placeholders for everything downstream.
func NewState(technologies []string) *State {
	s := &State{data: make(map[string]any)}
	s.data[KeyTechnologies] = append([]string(nil), technologies...)
	return s
}

// Get returns the raw value stored under key.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores a value under key. Writes are atomic: readers observe either
// the previous value or the new one, never an intermediate.
func (s *State) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Has reports whether key holds a value. Join probes use this to diagnose
// which branch has not delivered yet.
func (s *State) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}

// Snapshot returns a shallow copy of the state for inspection. The copy is
// detached: mutating it does not affect the run.
func (s *State) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// Technologies returns the normalized technology list for this run.
func (s *State) Technologies() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	techs, _ := s.data[KeyTechnologies].([]string)
	return append([]string(nil), techs...)
}

// SetTechnologies replaces the technology list (the prepare step writes the
// cleaned list back).
func (s *State) SetTechnologies(techs []string) {
	s.Set(KeyTechnologies, append([]string(nil), techs...))
}

// Outline returns the outline region, if the outline branch has written it.
func (s *State) Outline() (Outline, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.data[KeyOutline].(Outline)
	return o, ok
}

// SetOutline writes the outline region. Owned by the outline branch.
func (s *State) SetOutline(o Outline) {
	s.Set(KeyOutline, o)
}

// Research returns the research region, if the research branch has written it.
func (s *State) Research() (Research, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.data[KeyResearch].(Research)
	return r, ok
}

// SetResearch writes the research region. Owned by the research branch.
func (s *State) SetResearch(r Research) {
	s.Set(KeyResearch, r)
}

// Document returns the final document, if the write step has produced it.
func (s *State) Document() (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.data[KeyDocument].(Document)
	return d, ok
}

// SetDocument writes the final document.
func (s *State) SetDocument(d Document) {
	s.Set(KeyDocument, d)
}
