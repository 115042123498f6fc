package model

import "time"

// Booking reserves a space for the half-open-ish interval
// [StartTime, EndTime). TotalPrice is frozen at creation time; later
// rate changes on the space never affect it. Status and PaymentStatus
// are the persisted representation of the composite State; write them
// only through SetState.
type Booking struct {
	ID            string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	SpaceID       string        `json:"space_id" bson:"space_id" validate:"required,mongodb"`
	UserID        string        `json:"user_id" bson:"user_id" validate:"required"`
	StartTime     time.Time     `json:"start_time" bson:"start_time" validate:"required"`
	EndTime       time.Time     `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	TotalPrice    float64       `json:"total_price" bson:"total_price"`
	Purpose       string        `json:"purpose" bson:"purpose" validate:"required,max=500"`
	Status        BookingStatus `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	PaymentStatus PayStatus     `json:"payment_status" bson:"payment_status" validate:"required,oneof=pending paid refunded"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt     time.Time     `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

func (b *Booking) State() State {
	return State{Status: b.Status, Payment: b.PaymentStatus}
}

func (b *Booking) SetState(s State) {
	b.Status = s.Status
	b.PaymentStatus = s.Payment
}

func (b *Booking) DurationHours() float64 {
	return b.EndTime.Sub(b.StartTime).Seconds() / 3600
}

// PriceFor computes the booking price for a space rate and interval:
// rate per hour times the interval length in hours.
func PriceFor(ratePerHour float64, start, end time.Time) float64 {
	return ratePerHour * end.Sub(start).Seconds() / 3600
}
