package audiopath

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the controller.
var (
	// ErrInterrupted is returned when the caller's context ends while it waits
	// for the path permit. No hardware has been touched.
	ErrInterrupted = errors.New("audiopath: interrupted waiting for path permit")

	// ErrInvalidRequest is returned for an unknown path code. No hardware has
	// been touched.
	ErrInvalidRequest = errors.New("audiopath: invalid path request")

	// ErrInvalidLine is returned by Attach when no speaker line is supplied.
	ErrInvalidLine = errors.New("audiopath: invalid speaker line")

	// ErrClosed is returned after the controller has been detached.
	ErrClosed = errors.New("audiopath: controller closed")

	// ErrHardware is wrapped by StepError when a fallible collaborator fails.
	ErrHardware = errors.New("audiopath: hardware step failed")
)

// StepError records a failed sequencing step. Sequencing continues past the
// failure, so the remaining steps of the transition were still applied.
type StepError struct {
	Step StepKind
	Path Path
	Err  error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("audiopath: %s step for %s: %v", e.Step, e.Path, e.Err)
}

// Unwrap exposes both ErrHardware and the underlying cause.
func (e *StepError) Unwrap() []error {
	return []error{ErrHardware, e.Err}
}
