package domain

import "fmt"

// Error types for consistent error handling across the BFA.
//
// Errors that should move the client to another page carry a Redirect
// naming the target page; see RedirectOf.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
	Redirect string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *ErrNotFound) RedirectTo() string { return e.Redirect }

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field    string
	Message  string
	Redirect string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

func (e *ErrValidation) RedirectTo() string { return e.Redirect }

// ErrForbidden indicates the caller lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrUnauthorized indicates a missing session or invalid credentials.
type ErrUnauthorized struct {
	Message  string
	Redirect string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

func (e *ErrUnauthorized) RedirectTo() string { return e.Redirect }

// ErrConflict indicates a resource already exists (e.g. duplicate CNPJ or e-mail).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrCorruptRecord indicates a persisted value could not be decoded.
type ErrCorruptRecord struct {
	Key string
	Err error
}

func (e *ErrCorruptRecord) Error() string {
	return fmt.Sprintf("corrupt record at %q: %v", e.Key, e.Err)
}

func (e *ErrCorruptRecord) Unwrap() error {
	return e.Err
}

// RedirectOf returns the page an error asks the client to move to, if any.
func RedirectOf(err error) string {
	type redirector interface{ RedirectTo() string }
	for err != nil {
		if r, ok := err.(redirector); ok && r.RedirectTo() != "" {
			return r.RedirectTo()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
