package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError independently of its specific code.
// Callers branch on the kind; the code is carried through to API consumers.
type ErrorKind string

const (
	KindValidation                  ErrorKind = "VALIDATION_ERROR"
	KindNotFound                    ErrorKind = "NOT_FOUND"
	KindInsufficientStock           ErrorKind = "INSUFFICIENT_STOCK"
	KindInsufficientUnassignedStock ErrorKind = "INSUFFICIENT_UNASSIGNED_STOCK"
	KindInvalidTransition           ErrorKind = "INVALID_TRANSITION"
	KindApprovalFailed              ErrorKind = "APPROVAL_FAILED"
	KindCompletionFailed            ErrorKind = "COMPLETION_FAILED"
	KindConflict                    ErrorKind = "CONFLICT"
	KindForbidden                   ErrorKind = "FORBIDDEN"
	KindPersistence                 ErrorKind = "PERSISTENCE_ERROR"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Kind    ErrorKind      `json:"kind"`
	Details map[string]any `json:"details,omitempty"`

	cause    error
	kindOnly bool
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error. Kind sentinels (ErrValidation,
// ErrInsufficientStock, ...) match every error of the same kind; any other
// DomainError matches on code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.kindOnly {
		return t.Kind == e.Kind
	}
	return t.Code == e.Code
}

// WithDetail returns a copy of the error with key set in its details
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	cp := *e
	cp.kindOnly = false
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// NewDomainError creates a new validation-kind domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    KindValidation,
	}
}

// NewKindError creates a domain error of the given kind
func NewKindError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    kind,
	}
}

func newKindSentinel(kind ErrorKind, message string) *DomainError {
	return &DomainError{
		Code:     string(kind),
		Message:  message,
		Kind:     kind,
		kindOnly: true,
	}
}

// Kind sentinels, for use with errors.Is
var (
	ErrValidation                  = newKindSentinel(KindValidation, "Invalid input provided")
	ErrNotFound                    = newKindSentinel(KindNotFound, "Resource not found")
	ErrInsufficientStock           = newKindSentinel(KindInsufficientStock, "Insufficient stock available")
	ErrInsufficientUnassignedStock = newKindSentinel(KindInsufficientUnassignedStock, "Insufficient unassigned stock in business pool")
	ErrInvalidTransition           = newKindSentinel(KindInvalidTransition, "Operation not allowed in current state")
	ErrApprovalFailed              = newKindSentinel(KindApprovalFailed, "Approval failed")
	ErrCompletionFailed            = newKindSentinel(KindCompletionFailed, "Completion failed")
	ErrConflict                    = newKindSentinel(KindConflict, "Request conflicts with current state")
	ErrForbidden                   = newKindSentinel(KindForbidden, "Access to this resource is forbidden")
	ErrPersistence                 = newKindSentinel(KindPersistence, "Persistence failure")
)

// NewNotFoundError creates a not-found error naming the missing resource
func NewNotFoundError(resource string) *DomainError {
	return NewKindError(KindNotFound, "NOT_FOUND", resource+" not found").WithDetail("resource", resource)
}

// NewInvalidTransitionError reports an operation attempted outside its allowed states
func NewInvalidTransitionError(entity, from, operation string) *DomainError {
	return NewKindError(KindInvalidTransition, "INVALID_TRANSITION",
		fmt.Sprintf("Cannot %s %s in status %s", operation, entity, from)).
		WithDetail("entity", entity).
		WithDetail("status", from).
		WithDetail("operation", operation)
}

// NewInsufficientStockError reports a failed sufficiency check with its shortfall
func NewInsufficientStockError(item string, requested, available int64) *DomainError {
	if available < 0 {
		available = 0
	}
	return NewKindError(KindInsufficientStock, "INSUFFICIENT_STOCK",
		fmt.Sprintf("Not enough stock for %s! Only %d available.", item, available)).
		WithDetail("item", item).
		WithDetail("requested", requested).
		WithDetail("available", available).
		WithDetail("shortfall", requested-available)
}

// NewInsufficientUnassignedStockError reports a short business pool
func NewInsufficientUnassignedStockError(product string, requested, available int64) *DomainError {
	if available < 0 {
		available = 0
	}
	return NewKindError(KindInsufficientUnassignedStock, "INSUFFICIENT_UNASSIGNED_STOCK",
		fmt.Sprintf("Not enough unassigned stock for %s! Only %d available.", product, available)).
		WithDetail("item", product).
		WithDetail("requested", requested).
		WithDetail("available", available).
		WithDetail("shortfall", requested-available)
}

// NewPersistenceError wraps a store failure. Domain errors pass through untouched.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return err
	}
	return &DomainError{
		Code:    "PERSISTENCE_ERROR",
		Message: "failed to " + op,
		Kind:    KindPersistence,
		cause:   err,
	}
}

// KindOf returns the kind of err, or "" when err is not a DomainError
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
