package model

import "time"

// Space is a rentable resource with an hourly rate. IsAvailable is a
// derived cache of "no active booking exists", and the booking service
// is the only writer. The system permits at most one active booking per
// space, which is the only reason a single boolean is sufficient.
type Space struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name         string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Description  string    `json:"description" bson:"description" validate:"required"`
	Address      string    `json:"address" bson:"address" validate:"required,max=200"`
	City         string    `json:"city" bson:"city" validate:"required,max=100"`
	PricePerHour float64   `json:"price_per_hour" bson:"price_per_hour" validate:"required,gt=0"`
	Capacity     int       `json:"capacity" bson:"capacity" validate:"required,min=1"`
	OwnerID      string    `json:"owner_id" bson:"owner_id" validate:"required"`
	IsAvailable  bool      `json:"is_available" bson:"is_available"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}
