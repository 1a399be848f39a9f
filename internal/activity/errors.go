package activity

import "fmt"

type constError string

func (e constError) Error() string { return string(e) }

// ErrValidation is matched by every *ValidationError via errors.Is.
const ErrValidation = constError("activity validation failed")

// ValidationError names the offending field and why it was rejected.
type ValidationError struct {
	Category string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: category %q: %s", ErrValidation, e.Category, e.Reason)
	}
	return fmt.Sprintf("%s: %s.%s: %s", ErrValidation, e.Category, e.Field, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
