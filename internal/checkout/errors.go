package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoSteps        = errors.New("checkout needs at least one step")
	ErrStepOutOfRange = errors.New("step out of range")
	ErrLastStep       = errors.New("already at the last step")
	ErrNotAtFinalStep = errors.New("order can only be finalized at the last step")
	ErrCartEmpty      = errors.New("cart is empty")
)

// ValidationError reports the required fields that were blank. It is a
// user-facing condition: the caller highlights Missing and lets the user
// retry. Step is zero for standalone forms.
type ValidationError struct {
	Step    int
	Key     string
	Missing []string
}

func (e *ValidationError) Error() string {
	if e.Step == 0 {
		return fmt.Sprintf("%s: missing required fields: %s", e.Key, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("step %d (%s): missing required fields: %s", e.Step, e.Key, strings.Join(e.Missing, ", "))
}
