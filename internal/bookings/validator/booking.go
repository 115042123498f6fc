package validator

import (
	bookingserrors "spacer/internal/bookings/errors"
	"spacer/pkg/model"
	"time"

	"github.com/go-playground/validator/v10"
)

type BookingValidator struct {
	validate    *validator.Validate
	maxDuration time.Duration
}

func NewBookingValidator(maxDuration time.Duration) *BookingValidator {
	return &BookingValidator{
		validate:    validator.New(),
		maxDuration: maxDuration,
	}
}

func (v *BookingValidator) Validate(booking *model.Booking) error {
	return v.validate.Struct(booking)
}

// ValidateInterval checks the booking interval rules in a fixed order
// and returns the first violation: times present, start not in the
// past, positive duration, duration within the cap. A start exactly at
// now is accepted.
func (v *BookingValidator) ValidateInterval(start, end, now time.Time) error {
	if start.IsZero() || end.IsZero() {
		return bookingserrors.ErrInvalidFormat
	}
	if start.Before(now) {
		return bookingserrors.ErrNotInFuture
	}
	if !end.After(start) {
		return bookingserrors.ErrNonPositiveDuration
	}
	if end.Sub(start) > v.maxDuration {
		return bookingserrors.ErrDurationExceeded
	}
	return nil
}

func (v *BookingValidator) MaxDuration() time.Duration {
	return v.maxDuration
}
