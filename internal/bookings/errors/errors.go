package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// Interval rule violations, checked in order. The first one that
	// fails is the one reported.
	ErrInvalidFormat       = errors.New("start and end times must be valid timestamps")
	ErrNotInFuture         = errors.New("start time must not be in the past")
	ErrNonPositiveDuration = errors.New("end time must be after start time")
	ErrDurationExceeded    = errors.New("booking duration exceeds the maximum allowed")
)
