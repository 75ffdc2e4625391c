// Package faults defines the error taxonomy surfaced by the dispatch core.
// Every business-rule breach maps to exactly one kind so callers can render
// a precise message and decide whether a retry makes sense. Storage and
// collaborator failures are wrapped as Internal and never masked as a
// domain kind.
package faults

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind classifies a fault.
type Kind int

const (
	// KindInternal is an unexpected failure from storage or a collaborator.
	KindInternal Kind = iota
	// KindNotFound means a referenced entity does not exist.
	KindNotFound
	// KindValidation means malformed input or a domain rule known to be
	// breached before any mutation.
	KindValidation
	// KindConflict means state changed concurrently or a uniqueness
	// constraint was violated. Conflicts are retryable by the caller.
	KindConflict
	// KindInvalidState means the attempted transition is not legal from the
	// entity's current status.
	KindInvalidState
	// KindUnauthorized means the acting party does not own the resource.
	KindUnauthorized
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error is a classified fault. It carries the entity and id it concerns so
// callers can render a user-facing message without re-querying.
type Error struct {
	Kind   Kind
	Entity string
	ID     string
	msg    string
	cause  error
}

func (e *Error) Error() string {
	s := e.msg
	if e.Entity != "" {
		s = fmt.Sprintf("%s %s: %s", e.Entity, e.ID, e.msg)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", s, e.cause)
	}
	return s
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// NotFound reports that the entity with the given id is absent.
func NotFound(entity, id string) error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id, msg: "not found"}
}

// Validationf reports a domain-rule breach known before mutation.
func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}

// Conflictf reports a concurrent-modification or uniqueness violation.
func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, msg: fmt.Sprintf(format, args...)}
}

// InvalidState reports an illegal transition attempt.
func InvalidState(entity, id, from, attempted string) error {
	return &Error{
		Kind:   KindInvalidState,
		Entity: entity,
		ID:     id,
		msg:    fmt.Sprintf("cannot %s from status %s", attempted, from),
	}
}

// Unauthorized reports that the actor does not own the resource.
func Unauthorized(entity, id, actor string) error {
	return &Error{
		Kind:   KindUnauthorized,
		Entity: entity,
		ID:     id,
		msg:    fmt.Sprintf("actor %s does not own this resource", actor),
	}
}

// Internal wraps an unexpected failure with context. The wrapped error keeps
// its chain so callers can still reach sentinel errors underneath.
func Internal(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindInternal, msg: fmt.Sprintf(format, args...), cause: errors.WithStack(err)}
}

// KindOf extracts the kind from an error chain. Unclassified errors report
// KindInternal so storage failures are never mistaken for domain faults.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == k
}

// IsNotFound reports whether err is a NotFound fault.
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

// IsValidation reports whether err is a Validation fault.
func IsValidation(err error) bool { return IsKind(err, KindValidation) }

// IsConflict reports whether err is a Conflict fault.
func IsConflict(err error) bool { return IsKind(err, KindConflict) }

// IsInvalidState reports whether err is an InvalidState fault.
func IsInvalidState(err error) bool { return IsKind(err, KindInvalidState) }

// IsUnauthorized reports whether err is an Unauthorized fault.
func IsUnauthorized(err error) bool { return IsKind(err, KindUnauthorized) }
