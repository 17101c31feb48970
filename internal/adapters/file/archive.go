// Package file archives finished documents as Markdown files on disk.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/scribe/pkg/domain"
)

// Archive implements ports.Archive. Documents land in Dir under a name built
// from the technologies and the generation timestamp, for example
// tech_doc_go_redis_20250825_143015.md.
type Archive struct {
	Dir string
}

// NewArchive creates an Archive rooted at dir. Empty means the current
// directory.
func NewArchive(dir string) *Archive {
	if dir == "" {
		dir = "."
	}
	return &Archive{Dir: dir}
}

// Store writes the document atomically: temp file in the same directory,
// fsync, close, rename. A crash mid-write never leaves a partial document
// under the final name.
func (a *Archive) Store(ctx context.Context, doc *domain.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", fmt.Errorf("ensure archive directory: %w", err)
	}

	destPath := filepath.Join(a.Dir, Filename(doc))

	tmpFile, err := os.CreateTemp(a.Dir, "tmp-doc-*.md")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.WriteString(doc.Markdown); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return "", fmt.Errorf("fsync document: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	// Rename over an existing file fails on Windows, so clear the way first.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return "", fmt.Errorf("replace existing document: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return "", fmt.Errorf("rename temp file: %w", err)
	}
	return destPath, nil
}

// Filename builds the archive name for a document:
// tech_doc_<slug>_<YYYYMMDD_HHMMSS>.md.
func Filename(doc *domain.Document) string {
	return fmt.Sprintf("tech_doc_%s_%s.md",
		slug(doc.Technologies),
		doc.GeneratedAt.Format("20060102_150405"),
	)
}

// slug joins up to three technology names into a filesystem-safe fragment.
func slug(techs []string) string {
	if len(techs) > 3 {
		techs = techs[:3]
	}
	parts := make([]string, 0, len(techs))
	for _, tech := range techs {
		cleaned := strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
				return r
			case r >= 'A' && r <= 'Z':
				return r + ('a' - 'A')
			case r == ' ', r == '-', r == '_', r == '.':
				return '_'
			default:
				return -1
			}
		}, strings.TrimSpace(tech))
		if cleaned != "" {
			parts = append(parts, cleaned)
		}
	}
	if len(parts) == 0 {
		return "doc"
	}
	return strings.Join(parts, "_")
}
