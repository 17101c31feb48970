package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRunNotFound is returned when a run ID cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// ErrNoTechnologies is returned when a run is requested with an empty list.
var ErrNoTechnologies = errors.New("no technologies provided")

// InputError reports a technology list that failed validation. Input errors
// are never retried: bad input does not become good input on retry.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "invalid input: " + e.Reason
}

// StepError reports a pipeline step that exhausted its retry budget. It
// wraps the failure of the last attempt.
type StepError struct {
	Step     string
	Attempts int
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed after %d attempt(s): %v", e.Step, e.Attempts, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// SyncTimeoutError reports that the merge deadline elapsed before every
// branch delivered its result. Missing names the branches still outstanding.
type SyncTimeoutError struct {
	Missing []string
	Waited  time.Duration
}

func (e *SyncTimeoutError) Error() string {
	return fmt.Sprintf("merge timed out after %s waiting for: %s", e.Waited, strings.Join(e.Missing, ", "))
}

// OutputError reports a generated document that failed the output contract.
type OutputError struct {
	Reason string
}

func (e *OutputError) Error() string {
	return "invalid document: " + e.Reason
}
