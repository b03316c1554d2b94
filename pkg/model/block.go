package model

import (
	"time"

	"gymsched/pkg/schedule"
)

// BlockStatusActive is the only status a stored block carries; removal
// deletes the row rather than soft-disabling it.
const BlockStatusActive = "blocked"

// Block is an admin-imposed unavailability window layered on top of a
// trainer's shift. Its interval always falls on a single calendar date.
type Block struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TrainerID string    `json:"trainer_id" bson:"trainer_id" validate:"required,mongodb"`
	Date      string    `json:"date" bson:"date" validate:"required,dateonly"`
	Start     string    `json:"start" bson:"start" validate:"required,clock"`
	End       string    `json:"end" bson:"end" validate:"required,clock"`
	Reason    string    `json:"reason" bson:"reason" validate:"required,min=2,max=200"`
	CreatedBy string    `json:"created_by" bson:"created_by" validate:"required,min=2,max=100"`
	Status    string    `json:"status" bson:"status" validate:"required,oneof=blocked"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

func (b *Block) Interval() (schedule.Interval, error) {
	return schedule.ParseInterval(b.Start, b.End)
}

// BulkRemove is the payload for deleting several blocks at once.
type BulkRemove struct {
	IDs []string `json:"ids" validate:"required,min=1,max=100,dive,mongodb"`
}
