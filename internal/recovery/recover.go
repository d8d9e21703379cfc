// Package recovery turns panics raised by user supplied code (registered
// functions, geometry libraries) into errors so a single bad record cannot
// crash a filtering pass.
package recovery

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// ErrPanic is wrapped by every error produced from a recovered panic.
var ErrPanic = errors.New("panic recovered")

// RecoverToValue runs fn and converts a panic into the zero value and an
// error wrapping ErrPanic. The panic and its stack are logged at error level
// under operation.
//
// Example:
//
//	v, err := recovery.RecoverToValue(logger, "function min", func() (Value, error) {
//	    return fn(args)
//	})
func RecoverToValue[T any](logger *slog.Logger, operation string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(logger, operation, r)
			var zero T
			result = zero
			err = fmt.Errorf("%w: %s: %v", ErrPanic, operation, r)
		}
	}()

	return fn()
}

func logPanic(logger *slog.Logger, operation string, r any) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("Panic recovered",
		"operation", operation,
		"panic", r,
		"stack", string(debug.Stack()),
	)
}
