package filter

import (
	"errors"
	"fmt"

	"github.com/hugr-lab/geofilter/feature"
	"github.com/hugr-lab/geofilter/geometry"
)

var (
	// ErrUnknownAttribute is returned when an attribute path does not
	// resolve on the evaluated record.
	ErrUnknownAttribute = feature.ErrUnknownAttribute

	// ErrTypeMismatch is returned when a value has a kind the operation
	// cannot work with.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrDivisionByZero is returned when a division has an exact zero
	// divisor.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrUnknownFunction is returned when a function name is not registered.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrArityMismatch is returned when a function receives a number of
	// arguments it does not accept.
	ErrArityMismatch = errors.New("arity mismatch")

	// ErrIllegalConstruction is returned when a filter or expression is
	// assembled from parts that violate its invariants.
	ErrIllegalConstruction = errors.New("illegal filter construction")

	// ErrUnsupportedRelation is returned when the geometry library cannot
	// decide a spatial predicate for the given geometry types.
	ErrUnsupportedRelation = geometry.ErrUnsupportedRelation
)

// IllegalFilterError reports a construction failure for a specific filter
// or expression type. It wraps ErrIllegalConstruction.
type IllegalFilterError struct {
	Type   string
	Reason string
}

// Error implements error.
func (e *IllegalFilterError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrIllegalConstruction, e.Type, e.Reason)
}

// Unwrap returns ErrIllegalConstruction.
func (e *IllegalFilterError) Unwrap() error {
	return ErrIllegalConstruction
}

func illegal[T ~string](t T, format string, args ...any) error {
	return &IllegalFilterError{Type: string(t), Reason: fmt.Sprintf(format, args...)}
}

func mismatch(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTypeMismatch, fmt.Sprintf(format, args...))
}
