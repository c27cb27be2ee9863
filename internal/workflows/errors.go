package workflows

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingReferenceData means the account has no practitioners,
	// appointment types or businesses to book against.
	ErrMissingReferenceData = errors.New("missing required data: practitioners, appointment types, or businesses")

	// ErrNoPatientsCreated means a demo could not create a single patient.
	ErrNoPatientsCreated = errors.New("could not create any test patients")
)

// StepError records a failed step of a batch run. Batch workflows collect
// these instead of aborting.
type StepError struct {
	Operation string // e.g. "create patient Jane Smith", "delete appointment 12"
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("Failed to %s: %s", e.Operation, e.Err.Error())
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// stepError formats a failed step for inclusion in a report's errors list.
func stepError(operation string, err error) string {
	return (&StepError{Operation: operation, Err: err}).Error()
}
