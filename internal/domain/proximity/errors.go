// internal/domain/proximity/errors.go

package proximity

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidInput marks client input errors
	ErrInvalidInput = errors.New("invalid input")

	// ErrSpatialUnavailable marks a store that cannot evaluate the spatial clause,
	// for example because the geospatial index is missing
	ErrSpatialUnavailable = errors.New("spatial index unavailable")
)

// InputError describes a rejected query parameter
type InputError struct {
	Param   string
	Message string
}

// NewInputError creates an input error for a parameter
func NewInputError(param, format string, args ...any) *InputError {
	return &InputError{Param: param, Message: fmt.Sprintf(format, args...)}
}

func (e *InputError) Error() string {
	if e.Param == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Param, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput
func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// IsInputError reports whether err was caused by client input
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// SpatialError wraps a store error that has been classified as a spatial index failure
type SpatialError struct {
	Err error
}

func (e *SpatialError) Error() string {
	return fmt.Sprintf("%v: %v", ErrSpatialUnavailable, e.Err)
}

// Is lets errors.Is match ErrSpatialUnavailable
func (e *SpatialError) Is(target error) bool {
	return target == ErrSpatialUnavailable
}

// Unwrap returns the underlying store error
func (e *SpatialError) Unwrap() error {
	return e.Err
}
