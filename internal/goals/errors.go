package goals

import "fmt"

type constError string

func (e constError) Error() string { return string(e) }

// ErrValidation is matched by every *ValidationError via errors.Is.
const ErrValidation = constError("goal validation failed")

// ValidationError names the rejected goal attribute.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
