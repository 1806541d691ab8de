package marketerrors

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the market core matches exactly one of these via errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidState    = errors.New("invalid state")
	ErrConflict        = errors.New("conflict")
	ErrTransient       = errors.New("transient failure")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Lookup errors
var (
	ErrGigNotFound  = fmt.Errorf("gig %w", ErrNotFound)
	ErrBidNotFound  = fmt.Errorf("bid %w", ErrNotFound)
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
)

// business rule errors
var (
	ErrGigNotOpen      = fmt.Errorf("%w: gig not open", ErrInvalidState)
	ErrSelfBid         = fmt.Errorf("%w: self-bid", ErrInvalidState)
	ErrAlreadyAssigned = fmt.Errorf("%w: already assigned", ErrInvalidState)
	ErrNotGigOwner     = fmt.Errorf("%w: only the gig owner may hire", ErrForbidden)
	ErrDuplicateBid    = fmt.Errorf("%w: duplicate bid", ErrConflict)
)

// Kind names a class of failure for transport adapters
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindInvalidState    Kind = "invalid_state"
	KindConflict        Kind = "conflict"
	KindTransient       Kind = "transient"
	KindUnauthenticated Kind = "unauthenticated"
	KindInternal        Kind = "internal"
)

// KindOf classifies err. Errors outside the taxonomy are KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrTransient):
		return KindTransient
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	default:
		return KindInternal
	}
}

// Transient marks an infrastructure fault from op as safe to retry, keeping the cause in the chain.
func Transient(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
}

// Validation wraps a field-level failure as ErrValidation.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
