package allocator

import (
	"fmt"

	"go.uber.org/multierr"
)

// ConfigurationError reports problems with the allocation configuration itself.
// It aborts a run before any trial starts.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid allocation configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Problems returns each individual configuration problem
func (e *ConfigurationError) Problems() []error {
	return multierr.Errors(e.Err)
}

// InfeasibleRequestError reports a request excluded from every trial.
// It is collected as a warning on the outcome, never returned from Allocate.
type InfeasibleRequestError struct {
	Request Request
	Reason  string
}

func (e *InfeasibleRequestError) Error() string {
	return fmt.Sprintf("request excluded for %s (P%d, %s): %s",
		e.Request.RequesterID, e.Request.Rank, e.Request.HutID, e.Reason)
}

func newInfeasible(req Request, format string, args ...any) *InfeasibleRequestError {
	return &InfeasibleRequestError{Request: req, Reason: fmt.Sprintf(format, args...)}
}
