package notifications

import "time"

const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is the payload consumed by the notification service.
// Schema changes must stay backward compatible; bump Version when they
// cannot.
type BookingEvent struct {
	Event      string           `json:"event"`
	Version    int              `json:"version"`
	OccurredAt time.Time        `json:"occurred_at"`
	Data       BookingEventData `json:"data"`
}

type BookingEventData struct {
	BookingID  string    `json:"booking_id"`
	SpaceID    string    `json:"space_id"`
	UserID     string    `json:"user_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	TotalPrice float64   `json:"total_price"`
	Status     string    `json:"status"`
}
