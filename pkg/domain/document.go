package domain

import (
	"fmt"
	"strings"
	"time"
)

// MinDocumentLength is the minimum size, in characters, a generated document
// must have to be considered valid.
const MinDocumentLength = 100

// Section is one top-level section of a document outline.
type Section struct {
	Name        string   `json:"name" yaml:"name" mapstructure:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Subsections []string `json:"subsections,omitempty" yaml:"subsections,omitempty" mapstructure:"subsections"`
}

// Outline is the structured plan the outline branch produces and the write
// step consumes.
type Outline struct {
	Title    string    `json:"title" yaml:"title" mapstructure:"title"`
	Sections []Section `json:"sections" yaml:"sections" mapstructure:"sections"`
}

// Validate checks the structural rules every outline must satisfy: a title
// and at least one named section.
func (o Outline) Validate() error {
	if strings.TrimSpace(o.Title) == "" {
		return fmt.Errorf("outline has no title")
	}
	if len(o.Sections) == 0 {
		return fmt.Errorf("outline has no sections")
	}
	for i, s := range o.Sections {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("outline section %d has no name", i)
		}
	}
	return nil
}

// Research maps a technology name to the free-text findings collected for it.
// Keys are the trimmed names from the technology list; association survives
// any completion order of the underlying lookups.
type Research map[string]string

// Missing returns the technologies from want that have no findings, in the
// order requested.
func (r Research) Missing(want []string) []string {
	var missing []string
	for _, t := range want {
		if _, ok := r[t]; !ok {
			missing = append(missing, t)
		}
	}
	return missing
}

// Document is the final artifact of a run.
type Document struct {
	Markdown     string    `json:"markdown"`
	Technologies []string  `json:"technologies"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Validate checks the output contract: a minimum length and at least one
// markdown heading line.
func (d Document) Validate() error {
	if len(d.Markdown) < MinDocumentLength {
		return fmt.Errorf("document too short: %d chars, need at least %d", len(d.Markdown), MinDocumentLength)
	}
	for _, line := range strings.Split(d.Markdown, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			return nil
		}
	}
	return fmt.Errorf("document has no markdown heading")
}
