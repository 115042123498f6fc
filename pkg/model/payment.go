package model

import "time"

type PaymentMethod string

const (
	MethodMpesa PaymentMethod = "mpesa"
	MethodCard  PaymentMethod = "card"
	MethodCash  PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodMpesa, MethodCard, MethodCash:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Payment is the zero-or-one payment record attached to a booking.
// TransactionID carries the provider's external reference
// (CheckoutRequestID for mpesa); it is unique across payments and empty
// for cash.
type Payment struct {
	ID            string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	BookingID     string        `json:"booking_id" bson:"booking_id" validate:"required,mongodb"`
	Amount        float64       `json:"amount" bson:"amount" validate:"required,gt=0"`
	Method        PaymentMethod `json:"payment_method" bson:"payment_method" validate:"required,oneof=mpesa card cash"`
	TransactionID string        `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	Status        PaymentStatus `json:"status" bson:"status" validate:"required,oneof=pending completed failed refunded"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt     time.Time     `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}
