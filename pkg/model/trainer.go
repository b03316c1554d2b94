package model

import (
	"time"

	"gymsched/pkg/schedule"
)

const (
	TrainerActive   = "active"
	TrainerInactive = "inactive"
)

// Trainer is a read-only projection of the trainer record. The scheduling
// engine never mutates trainers; shift overrides and status are maintained
// by the (out of scope) trainer administration flow.
type Trainer struct {
	ID        string `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string `json:"name" bson:"name"`
	ShiftType string `json:"shift_type,omitempty" bson:"shift_type,omitempty"`
	Status    string `json:"status" bson:"status"`

	// Optional explicit working-hours override. May be partially filled or
	// malformed in legacy data; shift resolution falls back to the named
	// template in that case.
	WorkStart  string `json:"work_start,omitempty" bson:"work_start,omitempty"`
	WorkEnd    string `json:"work_end,omitempty" bson:"work_end,omitempty"`
	BreakStart string `json:"break_start,omitempty" bson:"break_start,omitempty"`
	BreakEnd   string `json:"break_end,omitempty" bson:"break_end,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty" bson:"created_at,omitempty"`
}

// ShiftOverride maps the trainer's override fields to the engine type.
// Returns nil when no override fields are set.
func (t *Trainer) ShiftOverride() *schedule.Override {
	if t.WorkStart == "" && t.WorkEnd == "" && t.BreakStart == "" && t.BreakEnd == "" {
		return nil
	}
	return &schedule.Override{
		WorkStart:  t.WorkStart,
		WorkEnd:    t.WorkEnd,
		BreakStart: t.BreakStart,
		BreakEnd:   t.BreakEnd,
	}
}
