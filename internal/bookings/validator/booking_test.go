package validator

import (
	"errors"
	bookingserrors "spacer/internal/bookings/errors"
	"testing"
	"time"
)

func TestValidateInterval(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	v := NewBookingValidator(24 * time.Hour)

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr error
	}{
		{
			name:    "valid interval",
			start:   now.Add(1 * time.Hour),
			end:     now.Add(3 * time.Hour),
			wantErr: nil,
		},
		{
			name:    "start exactly at now is accepted",
			start:   now,
			end:     now.Add(2 * time.Hour),
			wantErr: nil,
		},
		{
			name:    "duration exactly at the cap is accepted",
			start:   now.Add(1 * time.Hour),
			end:     now.Add(25 * time.Hour),
			wantErr: nil,
		},
		{
			name:    "zero start time",
			start:   time.Time{},
			end:     now.Add(2 * time.Hour),
			wantErr: bookingserrors.ErrInvalidFormat,
		},
		{
			name:    "zero end time",
			start:   now.Add(1 * time.Hour),
			end:     time.Time{},
			wantErr: bookingserrors.ErrInvalidFormat,
		},
		{
			name:    "start in the past",
			start:   now.Add(-1 * time.Minute),
			end:     now.Add(2 * time.Hour),
			wantErr: bookingserrors.ErrNotInFuture,
		},
		{
			name:    "end equals start",
			start:   now.Add(1 * time.Hour),
			end:     now.Add(1 * time.Hour),
			wantErr: bookingserrors.ErrNonPositiveDuration,
		},
		{
			name:    "end before start",
			start:   now.Add(3 * time.Hour),
			end:     now.Add(1 * time.Hour),
			wantErr: bookingserrors.ErrNonPositiveDuration,
		},
		{
			name:    "duration over the cap",
			start:   now.Add(1 * time.Hour),
			end:     now.Add(1*time.Hour + 24*time.Hour + time.Minute),
			wantErr: bookingserrors.ErrDurationExceeded,
		},
		{
			name:    "past start reported before inverted interval",
			start:   now.Add(-2 * time.Hour),
			end:     now.Add(-3 * time.Hour),
			wantErr: bookingserrors.ErrNotInFuture,
		},
		{
			name:    "inverted interval reported before duration cap",
			start:   now.Add(30 * time.Hour),
			end:     now.Add(1 * time.Hour),
			wantErr: bookingserrors.ErrNonPositiveDuration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateInterval(tt.start, tt.end, now)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
