package fractal

import (
	"errors"
	"fmt"
)

// Sentinel errors for the fractal package.
var (
	// ErrInvalidView is returned when a View fails validation.
	// Every *ViewError unwraps to it.
	ErrInvalidView = errors.New("fractal: invalid view")

	// ErrClosed is returned when starting a render on a closed Scheduler.
	ErrClosed = errors.New("fractal: scheduler closed")

	// ErrCancelled is returned by Render when its job was superseded or
	// cancelled before completion without the context being done.
	ErrCancelled = errors.New("fractal: render cancelled")
)

// ViewError describes the first View field that failed validation.
type ViewError struct {
	// Field is the Go field name, e.g. "Bailout".
	Field string

	// Value is the rejected value.
	Value any

	// Reason is a short constraint description, e.g. "must be >= 2".
	Reason string
}

func (e *ViewError) Error() string {
	return fmt.Sprintf("fractal: invalid view: %s %v %s", e.Field, e.Value, e.Reason)
}

// Unwrap returns ErrInvalidView so callers can use errors.Is.
func (e *ViewError) Unwrap() error {
	return ErrInvalidView
}
