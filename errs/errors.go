// Package errs holds the error taxonomy shared by the aggregation, ledger
// and HTTP layers. Handlers map these to status codes; everything else
// wraps them with context.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation covers malformed or incomplete requests, e.g. a
	// missing store parameter.
	ErrValidation = errors.New("validation error")

	// ErrNotFound is returned for an unknown product or transaction id.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyReversed is returned when reversing a transaction twice.
	ErrAlreadyReversed = errors.New("transaction already reversed")

	// ErrInsufficientStock is returned when a sale (or a purchase
	// reversal) would drive pieces negative. Backorders are not allowed.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrStorage wraps transient database failures. Callers may retry:
	// none of the ledger operations have side effects outside the store.
	ErrStorage = errors.New("storage error")
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
}

// Storage wraps a database error so it surfaces as ErrStorage.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

// IsConflict reports whether the error is one of the 409-class failures.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyReversed) || errors.Is(err, ErrInsufficientStock)
}
