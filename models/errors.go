package models

// ValidationError reports caller-supplied data that violates a model
// invariant. It is always recoverable by correcting the input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
