package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepError_Unwrap(t *testing.T) {
	cause := errors.New("rate limited")
	err := &domain.StepError{Step: "outline", Attempts: 2, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `step "outline"`)
	assert.Contains(t, err.Error(), "2 attempt(s)")

	wrapped := fmt.Errorf("run aborted: %w", err)
	var stepErr *domain.StepError
	require.ErrorAs(t, wrapped, &stepErr)
	assert.Equal(t, "outline", stepErr.Step)
}

func TestSyncTimeoutError_NamesMissing(t *testing.T) {
	err := &domain.SyncTimeoutError{Missing: []string{"research"}, Waited: 3 * time.Second}
	assert.Contains(t, err.Error(), "research")
	assert.Contains(t, err.Error(), "3s")
}

func TestTaxonomyMessages(t *testing.T) {
	assert.EqualError(t, &domain.InputError{Reason: "empty list"}, "invalid input: empty list")
	assert.EqualError(t, &domain.OutputError{Reason: "too short"}, "invalid document: too short")
}
