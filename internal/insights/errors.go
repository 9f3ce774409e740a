// ABOUTME: Error types for the insights entity layer.
// ABOUTME: Callers branch on sentinel errors and typed validation failures.

package insights

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a requested analysis, hypothesis, or issue does
// not exist in the referenced container.
var ErrNotFound = errors.New("entity not found")

// ValidationError reports a rejected write before any state changed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidTransitionError reports a lifecycle transition the entity's
// current state does not permit. It carries both the current and the
// attempted status so callers can explain the rejection.
type InvalidTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s %s: cannot move from %s to %s: %s", e.Entity, e.ID, e.From, e.To, e.Reason)
}
