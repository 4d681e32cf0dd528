package shared

import (
	"errors"
	"fmt"
)

// Kind is a stable error classification surfaced to API callers. The values
// are part of the external contract and must not change.
type Kind string

const (
	// Validation kinds: caller-fixable, never retried automatically.
	KindValidation             Kind = "Validation"
	KindInvalidServiceDuration Kind = "InvalidServiceDuration"
	KindMissingBranchSchedule  Kind = "MissingBranchSchedule"
	KindServiceNotOffered      Kind = "ServiceNotOfferedAtBranch"

	// Conflict kinds: idempotency and concurrency guards.
	KindConflict          Kind = "Conflict"
	KindOverlapConflict   Kind = "OverlapConflict"
	KindAlreadyCompleted  Kind = "AlreadyCompleted"
	KindAlreadyDebited    Kind = "AlreadyDebited"
	KindCommissionExists  Kind = "CommissionAlreadyExists"
	KindInvalidTransition Kind = "InvalidTransition"

	// Resource exhaustion kinds: business-rule rejections.
	KindPackageExpired       Kind = "PackageExpired"
	KindPackageExhausted     Kind = "PackageExhausted"
	KindInsufficientSessions Kind = "InsufficientSessions"

	// Transient kinds: eligible for bounded retries at the caller.
	KindStoreTimeout Kind = "StoreTimeout"

	KindNotFound  Kind = "NotFound"
	KindForbidden Kind = "Forbidden"
)

// Error carries a Kind alongside a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a kinded error.
func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Ef builds a kinded error with a formatted message.
func Ef(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// UserSafeMessage returns a message suitable for end users. Kinded errors are
// shown verbatim; anything else collapses to a generic message so internal
// details never leak.
func UserSafeMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "something went wrong, please try again"
}
