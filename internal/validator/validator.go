// Package validator cleans and checks the technology list a run starts from.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/scribe/pkg/domain"
)

// MaxNameLength is the longest a single technology name may be.
const MaxNameLength = 100

// CleanTechnologies normalizes a raw technology list: entries are trimmed,
// blanks dropped, and case-insensitive duplicates removed keeping the first
// occurrence's casing and position. maxEntries caps the cleaned list size
// (0 means no cap).
//
// An empty result returns domain.ErrNoTechnologies; an oversized name or an
// oversized list returns a *domain.InputError. Bad input is never retried.
func CleanTechnologies(raw []string, maxEntries int) ([]string, error) {
	cleaned := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, entry := range raw {
		name := strings.TrimSpace(entry)
		if name == "" {
			continue
		}
		if len(name) > MaxNameLength {
			return nil, &domain.InputError{
				Reason: fmt.Sprintf("technology name %q is %d chars, max is %d", truncate(name, 24), len(name), MaxNameLength),
			}
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		cleaned = append(cleaned, name)
	}

	if len(cleaned) == 0 {
		return nil, domain.ErrNoTechnologies
	}
	if maxEntries > 0 && len(cleaned) > maxEntries {
		return nil, &domain.InputError{
			Reason: fmt.Sprintf("%d technologies given, max is %d", len(cleaned), maxEntries),
		}
	}
	return cleaned, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
