package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Enrollment workflow errors. Each guards a numeric or sequencing
// invariant relied on downstream, so none may be downgraded to a warning.
var (
	ErrMalformedNotation         = New("MALFORMED_NOTATION", http.StatusBadRequest, "credit notation does not match T(L-P)")
	ErrInconsistentHours         = New("INCONSISTENT_HOURS", http.StatusBadRequest, "lecture plus practical hours exceed total credits")
	ErrInvalidSubject            = New("INVALID_SUBJECT", http.StatusBadRequest, "invalid subject")
	ErrDuplicateScheme           = New("DUPLICATE_SCHEME", http.StatusConflict, "scheme already exists for degree, session and name")
	ErrDuplicateActiveSubmission = New("DUPLICATE_ACTIVE_SUBMISSION", http.StatusConflict, "an active fee submission already exists for this semester")
	ErrInvalidTransition         = New("INVALID_TRANSITION", http.StatusConflict, "fee verification status transition not allowed")
	ErrFeeNotVerified            = New("FEE_NOT_VERIFIED", http.StatusPreconditionFailed, "no approved fee verification for this semester")
	ErrDuplicateOpenForm         = New("DUPLICATE_OPEN_FORM", http.StatusConflict, "an open enrollment form already exists")
	ErrCreditCeilingExceeded     = New("CREDIT_CEILING_EXCEEDED", http.StatusUnprocessableEntity, "selection would exceed the credit-hour ceiling")
	ErrCreditFloorNotMet         = New("CREDIT_FLOOR_NOT_MET", http.StatusUnprocessableEntity, "selection is below the credit-hour floor")
	ErrMissingSignature          = New("MISSING_SIGNATURE", http.StatusBadRequest, "signature identity is required")
	ErrInvalidState              = New("INVALID_STATE", http.StatusConflict, "action not allowed in current form state")
	ErrFormFinalized             = New("FORM_FINALIZED", http.StatusConflict, "form is finalized and can no longer change")
	ErrNumberingUnavailable      = New("NUMBERING_UNAVAILABLE", http.StatusServiceUnavailable, "form numbering authority unavailable")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
