package domain

import (
	"errors"
	"fmt"
)

// ErrKind is used to map errors to HTTP status codes consistently.
type ErrKind string

const (
	KindValidation  ErrKind = "validation"   // 400, rejected before any backend call
	KindAuth        ErrKind = "auth"         // 401
	KindForbidden   ErrKind = "forbidden"    // 403
	KindNotFound    ErrKind = "not_found"    // 404
	KindConflict    ErrKind = "conflict"     // 409
	KindRateLimited ErrKind = "rate_limited" // 429
	KindRemote      ErrKind = "remote"       // backend business error, status preserved
	KindUnavailable ErrKind = "unavailable"  // 502/504, backend unreachable
	KindInternal    ErrKind = "internal"     // 500
)

// FallbackMessage is reported when the backend gives no usable message.
const FallbackMessage = "Something went wrong"

// Error is a structured error.
// - Kind: high-level category for HTTP mapping
// - Code: stable machine code
// - Message: human-readable text, safe to show in a banner
// - Status: upstream HTTP status for KindRemote
// - Cause: wrapped internal error for logging
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Status  int
	Meta    map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind ErrKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

func WithMeta(err *Error, meta map[string]string) *Error {
	err.Meta = meta
	return err
}

func Is(err error, code string) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// MessageOf extracts the banner text of err. Non-domain errors collapse to
// FallbackMessage so transport details never reach the user.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return FallbackMessage
}

// ----------------------
// Validation errors (400)
// ----------------------

func ErrInvalidJSON(cause error) *Error {
	return Wrap(KindValidation, "invalid_json", "invalid JSON body", cause)
}

func ErrInvalidField(field, reason string) *Error {
	return WithMeta(New(KindValidation, "invalid_field", "invalid "+field), map[string]string{
		"field":  field,
		"reason": reason,
	})
}

func ErrInvalidCode() *Error {
	return New(KindValidation, "invalid_code", "Verification code must be 6 digits")
}

// ----------------------
// Auth / forbidden
// ----------------------

func ErrAuthRequired() *Error {
	return New(KindAuth, "auth_required", "Please sign in to continue")
}

func ErrEmailNotVerified() *Error {
	return New(KindForbidden, "email_not_verified", "Verify your email before registering")
}

func ErrAlreadySignedIn() *Error {
	return New(KindForbidden, "already_signed_in", "You are already signed in")
}

func ErrInsufficientRole(required Role) *Error {
	return WithMeta(New(KindForbidden, "insufficient_role", "insufficient role"), map[string]string{
		"required": string(required),
	})
}

func ErrRateLimited(scope string) *Error {
	return WithMeta(New(KindRateLimited, "rate_limited", "too many requests"), map[string]string{
		"scope": scope,
	})
}

// ----------------------
// Backend outcomes
// ----------------------

// ErrRemote reports a business error returned by the backend with its message.
func ErrRemote(status int, msg string) *Error {
	if msg == "" {
		msg = FallbackMessage
	}
	return &Error{Kind: KindRemote, Code: "remote_error", Message: msg, Status: status}
}

// ErrRejected reports a 2xx reply whose envelope carried success=false.
func ErrRejected(msg string) *Error {
	if msg == "" {
		msg = FallbackMessage
	}
	return New(KindRemote, "rejected", msg)
}

func ErrBackendUnavailable(cause error) *Error {
	return Wrap(KindUnavailable, "backend_unavailable", FallbackMessage, cause)
}

func ErrBackendTimeout(cause error) *Error {
	return Wrap(KindUnavailable, "backend_timeout", "The server took too long to respond", cause)
}

func ErrSuperseded() *Error {
	return New(KindConflict, "superseded", "a newer request replaced this one")
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, "internal_error", "internal error", cause)
}
