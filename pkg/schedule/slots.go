package schedule

// SlotStatus annotates a single offerable start time.
type SlotStatus string

const (
	SlotAvailable   SlotStatus = "available"
	SlotBooked      SlotStatus = "booked"
	SlotBreak       SlotStatus = "break"
	SlotUnavailable SlotStatus = "unavailable"
)

type Slot struct {
	TimeMin int        `json:"-"`
	Time    string     `json:"time"`
	Status  SlotStatus `json:"status"`
}

// BusyKind distinguishes how an occupied interval renders: a reservation
// shows as booked, an admin block as unavailable.
type BusyKind int

const (
	BusyReservation BusyKind = iota
	BusyBlock
)

type Busy struct {
	Interval Interval
	Kind     BusyKind
}

// NowUnknown disables the past-time rule, for dates other than today.
const NowUnknown = -1

// GenerateSlots enumerates start times from the shift's work window at
// stepMin increments (workEnd excluded) and annotates each with a status.
// Rules apply in order, first match wins:
//
//  1. t at or before nowMin          -> unavailable (lapsed)
//  2. t inside the break window      -> break
//  3. t inside a busy interval       -> booked (reservation) / unavailable (block)
//  4. otherwise                      -> available
//
// Past and break outrank busy on purpose: the UI must never offer a lapsed
// or on-break slot even if a stale reservation record claims it.
func GenerateSlots(shift Shift, busy []Busy, nowMin, stepMin int) []Slot {
	if stepMin <= 0 {
		return nil
	}

	var slots []Slot
	for t := shift.Work.StartMin; t < shift.Work.EndMin; t += stepMin {
		slots = append(slots, Slot{
			TimeMin: t,
			Time:    Clock(t),
			Status:  slotStatus(shift, busy, nowMin, t),
		})
	}
	return slots
}

func slotStatus(shift Shift, busy []Busy, nowMin, t int) SlotStatus {
	if nowMin != NowUnknown && t <= nowMin {
		return SlotUnavailable
	}
	if shift.Break != nil && shift.Break.ContainsMinute(t) {
		return SlotBreak
	}
	for _, b := range busy {
		if b.Interval.ContainsMinute(t) {
			if b.Kind == BusyBlock {
				return SlotUnavailable
			}
			return SlotBooked
		}
	}
	return SlotAvailable
}
