package model

import (
	"time"

	"gymsched/pkg/schedule"
)

// Reservation statuses. Confirmed reservations move to completed or
// cancelled (terminal) via admin action, or to blocked when an admin
// unavailability block covers them; blocked reservations return to
// confirmed only through the block-removal cascade, though an admin may
// still cancel a parked reservation outright.
const (
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusBlocked   = "blocked"
)

type Reservation struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UserID    string    `json:"user_id" bson:"user_id" validate:"required,mongodb"`
	TrainerID string    `json:"trainer_id" bson:"trainer_id" validate:"required,mongodb"`
	Date      string    `json:"date" bson:"date" validate:"required,dateonly"`
	Start     string    `json:"start" bson:"start" validate:"required,clock"`
	End       string    `json:"end" bson:"end" validate:"required,clock"`
	ClassType string    `json:"class_type" bson:"class_type" validate:"required,min=2,max=50"`
	Status    string    `json:"status" bson:"status" validate:"required,oneof=confirmed completed cancelled blocked"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty" validate:"omitempty"`
}

// Interval converts the HH:MM boundaries to the engine representation.
func (r *Reservation) Interval() (schedule.Interval, error) {
	return schedule.ParseInterval(r.Start, r.End)
}

// Reschedule is the payload for moving a reservation to a new date/interval
// and optionally a new trainer.
type Reschedule struct {
	TrainerID string `json:"trainer_id,omitempty" validate:"omitempty,mongodb"`
	Date      string `json:"date" validate:"required,dateonly"`
	Start     string `json:"start" validate:"required,clock"`
	End       string `json:"end" validate:"required,clock"`
}

// StatusUpdate is the payload for an admin single-reservation transition.
// Only the terminal admin transitions are accepted here; blocked is managed
// exclusively by the block registry cascade.
type StatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=completed cancelled"`
}

// BulkStatusUpdate applies one admin transition to many reservations.
type BulkStatusUpdate struct {
	IDs    []string `json:"ids" validate:"required,min=1,max=100,dive,mongodb"`
	Status string   `json:"status" validate:"required,oneof=completed cancelled"`
}
