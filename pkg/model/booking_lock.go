package model

import "time"

// BookingLock is an advisory lock document guarding booking creation for
// a space. The unique _id makes concurrent acquisition race-free;
// ExpiresAt bounds the damage of a crashed holder via a TTL index.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
