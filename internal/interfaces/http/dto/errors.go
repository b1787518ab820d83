package dto

import (
	"errors"
	"net/http"

	"github.com/retailcore/backend/internal/domain/shared"
)

// Transport-level error codes. Domain errors carry their own codes.
const (
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeTokenExpired     = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid     = "TOKEN_INVALID"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeRequestTooLarge  = "REQUEST_TOO_LARGE"
	ErrCodeIdempotencyInUse = "IDEMPOTENCY_KEY_IN_USE"
	ErrCodeIdempotencyKey   = "INVALID_IDEMPOTENCY_KEY"
)

// kindHTTPStatus maps domain error kinds to HTTP status codes
var kindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation:                  http.StatusBadRequest,
	shared.KindNotFound:                    http.StatusNotFound,
	shared.KindForbidden:                   http.StatusForbidden,
	shared.KindConflict:                    http.StatusConflict,
	shared.KindInsufficientStock:           http.StatusUnprocessableEntity,
	shared.KindInsufficientUnassignedStock: http.StatusUnprocessableEntity,
	shared.KindInvalidTransition:           http.StatusUnprocessableEntity,
	shared.KindApprovalFailed:              http.StatusUnprocessableEntity,
	shared.KindCompletionFailed:            http.StatusUnprocessableEntity,
	shared.KindPersistence:                 http.StatusInternalServerError,
}

// StatusForKind returns the HTTP status for a domain error kind.
// Unknown kinds are internal errors.
func StatusForKind(kind shared.ErrorKind) int {
	if status, ok := kindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromError converts err into an HTTP status and error payload.
// Persistence failures and foreign errors never expose their cause.
func FromError(err error, requestID string) (int, Response) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError,
			NewErrorResponseWithRequestID(ErrCodeInternal, "An unexpected error occurred", requestID)
	}
	status := StatusForKind(de.Kind)
	resp := NewErrorResponseWithRequestID(de.Code, de.Message, requestID)
	resp.Error.Kind = string(de.Kind)
	if status < http.StatusInternalServerError {
		resp.Error.Details = de.Details
	}
	return status, resp
}
