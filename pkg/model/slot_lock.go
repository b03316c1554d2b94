package model

import "time"

// SlotLock is an advisory lock serializing booking commits per
// (trainer, date). The _id encodes the coordinates so a duplicate-key
// error on insert means another commit is in flight.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
