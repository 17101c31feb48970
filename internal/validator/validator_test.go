package validator

import (
	"strings"
	"testing"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanTechnologies(t *testing.T) {
	t.Run("trims and drops blanks", func(t *testing.T) {
		got, err := CleanTechnologies([]string{"  Go ", "", "   ", "Rust"}, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"Go", "Rust"}, got)
	})

	t.Run("dedupes case-insensitively keeping first casing", func(t *testing.T) {
		got, err := CleanTechnologies([]string{"Go", "go", "GO", "Rust", "rust"}, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"Go", "Rust"}, got)
	})

	t.Run("empty list", func(t *testing.T) {
		_, err := CleanTechnologies(nil, 10)
		assert.ErrorIs(t, err, domain.ErrNoTechnologies)
	})

	t.Run("all blank is empty", func(t *testing.T) {
		_, err := CleanTechnologies([]string{" ", "\t", ""}, 10)
		assert.ErrorIs(t, err, domain.ErrNoTechnologies)
	})

	t.Run("name too long", func(t *testing.T) {
		long := strings.Repeat("x", MaxNameLength+1)
		_, err := CleanTechnologies([]string{long}, 10)

		var inputErr *domain.InputError
		require.ErrorAs(t, err, &inputErr)
		assert.Contains(t, inputErr.Reason, "max is 100")
	})

	t.Run("name at the limit passes", func(t *testing.T) {
		edge := strings.Repeat("x", MaxNameLength)
		got, err := CleanTechnologies([]string{edge}, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{edge}, got)
	})

	t.Run("too many entries", func(t *testing.T) {
		_, err := CleanTechnologies([]string{"a", "b", "c"}, 2)

		var inputErr *domain.InputError
		require.ErrorAs(t, err, &inputErr)
		assert.Contains(t, inputErr.Reason, "max is 2")
	})

	t.Run("duplicates do not count toward the cap", func(t *testing.T) {
		got, err := CleanTechnologies([]string{"Go", "go", "Rust"}, 2)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("no cap when zero", func(t *testing.T) {
		got, err := CleanTechnologies([]string{"a", "b", "c", "d"}, 0)
		require.NoError(t, err)
		assert.Len(t, got, 4)
	})
}
