package services

import "fmt"

// NotFoundError is returned when a referenced conversation does not exist.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("conversation with ID %s not found", e.ID)
}

// GenerationError means the model capability itself failed: transport error,
// provider error, timeout, or an empty completion. Transient; the caller may
// retry. Never retried here.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to generate response: %v", e.Err)
	}
	return "failed to generate response"
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ResponseFormatError means the model replied but not in the required
// structured shape. Distinct from GenerationError: it points at a prompt or
// template defect and should be escalated rather than blindly retried.
type ResponseFormatError struct {
	Reason string
	Err    error
}

func (e *ResponseFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid model response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid model response: %s", e.Reason)
}

func (e *ResponseFormatError) Unwrap() error { return e.Err }

// TemplateError reports a prompt template that failed to parse or that
// references an undefined variable.
type TemplateError struct {
	Name string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("prompt template %q: %v", e.Name, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// ServiceError wraps unclassified internal failures (store round trips and
// the like) so internal representations do not leak across the boundary.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }
