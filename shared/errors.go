package shared

import (
	"errors"
	"fmt"
)

// Error codes for external consumption
const (
	ErrCodeInvalidHexEncoding     = "INVALID_HEX_ENCODING"
	ErrCodeInvalidSignatureLength = "INVALID_SIGNATURE_LENGTH"
	ErrCodeFieldRange             = "FIELD_RANGE_ERROR"
	ErrCodeSigning                = "SIGNING_ERROR"
	ErrCodeInvalidInput           = "INVALID_INPUT"
)

// Error is a classified failure. Message is safe to show to callers; the
// internal cause is only reachable through Unwrap.
type Error struct {
	Code     string
	Message  string
	internal error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the internal error for logging
func (e *Error) Unwrap() error {
	return e.internal
}

// Is reports whether target is a sentinel (message-less) Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.internal == nil && t.Code == e.Code
}

// Sentinels for errors.Is
var (
	ErrInvalidHexEncoding     = &Error{Code: ErrCodeInvalidHexEncoding}
	ErrInvalidSignatureLength = &Error{Code: ErrCodeInvalidSignatureLength}
	ErrFieldRange             = &Error{Code: ErrCodeFieldRange}
	ErrSigning                = &Error{Code: ErrCodeSigning}
	ErrInvalidInput           = &Error{Code: ErrCodeInvalidInput}
)

func InvalidHexEncoding(detail string, internal error) error {
	return &Error{
		Code:     ErrCodeInvalidHexEncoding,
		Message:  detail,
		internal: internal,
	}
}

func InvalidSignatureLength(got int) error {
	return &Error{
		Code:    ErrCodeInvalidSignatureLength,
		Message: fmt.Sprintf("expected at least %d hex chars, got %d", EthSigRHexLength, got),
	}
}

func FieldRange(detail string) error {
	return &Error{
		Code:    ErrCodeFieldRange,
		Message: detail,
	}
}

func SigningFailed(detail string, internal error) error {
	return &Error{
		Code:     ErrCodeSigning,
		Message:  detail,
		internal: internal,
	}
}

func InvalidInput(detail string) error {
	return &Error{
		Code:    ErrCodeInvalidInput,
		Message: detail,
	}
}

// CodeOf returns the classification code of err, or "" when err is not classified.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
