package ebox_errors

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy for the messaging core. Handlers map these onto HTTP
// status codes; services wrap them with %w so errors.Is keeps working
// through the call chain.
var (
	ErrValidation  = errors.New("validation failed")
	ErrPermission  = errors.New("permission denied")
	ErrPolicy      = errors.New("denied by policy")
	ErrPersistence = errors.New("persistence failure")
	ErrNotFound    = errors.New("not found")

	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyExists     = errors.New("already exists")
)

func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

func Permissionf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrPermission}, args...)...)
}

// Persistence wraps a failed store call so callers can both match the
// category and unwrap the cause.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
