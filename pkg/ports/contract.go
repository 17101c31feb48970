package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract runs a suite of tests to verify that a RunStore
// implementation adheres to the interface contract. Every store adapter
// should call it from its own test file.
func RunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("150405.000")

	newRun := func(n int, at time.Time) *domain.Run {
		return &domain.Run{
			ID:           fmt.Sprintf("%s-%d", prefix, n),
			Status:       domain.RunPending,
			Technologies: []string{"Go", "Redis"},
			CreatedAt:    at,
			UpdatedAt:    at,
		}
	}

	t.Run("Save and Get", func(t *testing.T) {
		run := newRun(1, time.Now().UTC().Truncate(time.Millisecond))

		// 1. Save
		err := store.Save(ctx, run)
		require.NoError(t, err, "Save should not return error")

		// 2. Get
		loaded, err := store.Get(ctx, run.ID)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, run.ID, loaded.ID)
		assert.Equal(t, domain.RunPending, loaded.Status)
		assert.Equal(t, []string{"Go", "Redis"}, loaded.Technologies)
		assert.True(t, run.CreatedAt.Equal(loaded.CreatedAt), "CreatedAt should survive the round trip")
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "non-existent-"+prefix)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Get Returns a Copy", func(t *testing.T) {
		run := newRun(2, time.Now().UTC())
		require.NoError(t, store.Save(ctx, run))

		loaded, err := store.Get(ctx, run.ID)
		require.NoError(t, err)
		loaded.Status = domain.RunFailed
		loaded.Technologies[0] = "mutated"

		fresh, err := store.Get(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunPending, fresh.Status, "mutating a returned run must not affect the store")
		assert.Equal(t, "Go", fresh.Technologies[0])
	})

	t.Run("Save Replaces", func(t *testing.T) {
		run := newRun(3, time.Now().UTC())
		require.NoError(t, store.Save(ctx, run))

		run.Status = domain.RunCompleted
		run.Document = &domain.Document{
			Markdown:     "# Done",
			Technologies: run.Technologies,
			GeneratedAt:  time.Now().UTC(),
		}
		require.NoError(t, store.Save(ctx, run))

		loaded, err := store.Get(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunCompleted, loaded.Status)
		require.NotNil(t, loaded.Document)
		assert.Equal(t, "# Done", loaded.Document.Markdown)
	})

	t.Run("List Newest First", func(t *testing.T) {
		base := time.Now().UTC()
		older := newRun(4, base.Add(-time.Hour))
		newer := newRun(5, base)
		require.NoError(t, store.Save(ctx, older))
		require.NoError(t, store.Save(ctx, newer))

		runs, err := store.List(ctx)
		require.NoError(t, err)

		idx := make(map[string]int)
		for i, r := range runs {
			idx[r.ID] = i
		}
		require.Contains(t, idx, older.ID)
		require.Contains(t, idx, newer.ID)
		assert.Less(t, idx[newer.ID], idx[older.ID], "List should order newest first")
	})

	t.Run("Delete", func(t *testing.T) {
		run := newRun(6, time.Now().UTC())
		require.NoError(t, store.Save(ctx, run))

		err := store.Delete(ctx, run.ID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Get(ctx, run.ID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Get after Delete should return ErrRunNotFound")

		err = store.Delete(ctx, run.ID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Delete of a missing run should report not found")
	})
}
