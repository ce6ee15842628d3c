package safety

import "fmt"

// ValidationError is returned when input is missing, of the wrong type, or
// empty after trimming.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("'%s' %s", e.Field, e.Reason)
}

// PolicyError is returned when input matches a blocked pattern.
type PolicyError struct {
	Pattern string
}

func (e PolicyError) Error() string {
	return "Blocked by safety policy"
}
