package testutil

import (
	"gymsched/pkg/model"
	"gymsched/pkg/schedule"
)

// ActiveTrainer is a morning-shift trainer ready to take bookings.
func ActiveTrainer() *model.Trainer {
	return &model.Trainer{
		Name:      "Dana Levi",
		ShiftType: schedule.ShiftMorning,
		Status:    model.TrainerActive,
	}
}

// TrainerWithBreak works 08:00-16:00 with a 12:00-13:00 break.
func TrainerWithBreak() *model.Trainer {
	return &model.Trainer{
		Name:       "Omri Katz",
		Status:     model.TrainerActive,
		WorkStart:  "08:00",
		WorkEnd:    "16:00",
		BreakStart: "12:00",
		BreakEnd:   "13:00",
	}
}

type ReservationBuilder struct {
	r model.Reservation
}

func NewReservationBuilder(userID, trainerID string) *ReservationBuilder {
	return &ReservationBuilder{
		r: model.Reservation{
			UserID:    userID,
			TrainerID: trainerID,
			Date:      "2026-10-05",
			Start:     "09:00",
			End:       "10:00",
			ClassType: "strength",
		},
	}
}

func (b *ReservationBuilder) WithDate(date string) *ReservationBuilder {
	b.r.Date = date
	return b
}

func (b *ReservationBuilder) WithWindow(start, end string) *ReservationBuilder {
	b.r.Start = start
	b.r.End = end
	return b
}

func (b *ReservationBuilder) WithClassType(classType string) *ReservationBuilder {
	b.r.ClassType = classType
	return b
}

func (b *ReservationBuilder) Build() model.Reservation {
	return b.r
}

type BlockBuilder struct {
	b model.Block
}

func NewBlockBuilder(trainerID string) *BlockBuilder {
	return &BlockBuilder{
		b: model.Block{
			TrainerID: trainerID,
			Date:      "2026-10-05",
			Start:     "10:00",
			End:       "12:00",
			Reason:    "equipment maintenance",
			CreatedBy: "front desk",
		},
	}
}

func (b *BlockBuilder) WithDate(date string) *BlockBuilder {
	b.b.Date = date
	return b
}

func (b *BlockBuilder) WithWindow(start, end string) *BlockBuilder {
	b.b.Start = start
	b.b.End = end
	return b
}

func (b *BlockBuilder) WithReason(reason string) *BlockBuilder {
	b.b.Reason = reason
	return b
}

func (b *BlockBuilder) Build() model.Block {
	return b.b
}
