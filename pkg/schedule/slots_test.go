package schedule

import "testing"

func slotByTime(slots []Slot, clock string) (Slot, bool) {
	for _, s := range slots {
		if s.Time == clock {
			return s, true
		}
	}
	return Slot{}, false
}

// Shift 07:00-15:00 with break 11:00-11:30 and an existing booking
// 09:00-10:00: 09:00 and 09:30 are booked, 11:00 is break, 07:00 is
// available, and times outside the window are absent.
func TestGenerateSlots_DayLayout(t *testing.T) {
	brk := Interval{StartMin: 660, EndMin: 690}
	shift := Shift{Work: Interval{StartMin: 420, EndMin: 900}, Break: &brk}
	busy := []Busy{
		{Interval: Interval{StartMin: 540, EndMin: 600}, Kind: BusyReservation},
	}

	slots := GenerateSlots(shift, busy, NowUnknown, 30)

	if len(slots) != 16 {
		t.Fatalf("len(slots) = %d, want 16 half-hour slots in 07:00-15:00", len(slots))
	}

	wantStatus := map[string]SlotStatus{
		"07:00": SlotAvailable,
		"09:00": SlotBooked,
		"09:30": SlotBooked,
		"10:00": SlotAvailable,
		"11:00": SlotBreak,
		"11:30": SlotAvailable,
		"14:30": SlotAvailable,
	}
	for clock, want := range wantStatus {
		slot, ok := slotByTime(slots, clock)
		if !ok {
			t.Errorf("slot %s missing", clock)
			continue
		}
		if slot.Status != want {
			t.Errorf("slot %s status = %q, want %q", clock, slot.Status, want)
		}
	}

	for _, absent := range []string{"06:30", "15:00"} {
		if _, ok := slotByTime(slots, absent); ok {
			t.Errorf("slot %s should not be generated outside the shift window", absent)
		}
	}
}

func TestGenerateSlots_PastOutranksBooked(t *testing.T) {
	shift := Shift{Work: Interval{StartMin: 420, EndMin: 900}}
	busy := []Busy{
		{Interval: Interval{StartMin: 420, EndMin: 480}, Kind: BusyReservation},
	}

	// 10:15 now: everything at or before 10:15 is lapsed, including the
	// slot covered by the stale booking.
	slots := GenerateSlots(shift, busy, 615, 30)

	for _, clock := range []string{"07:00", "07:30", "09:00", "10:00"} {
		slot, _ := slotByTime(slots, clock)
		if slot.Status != SlotUnavailable {
			t.Errorf("slot %s status = %q, want %q (lapsed)", clock, slot.Status, SlotUnavailable)
		}
	}

	slot, _ := slotByTime(slots, "10:30")
	if slot.Status != SlotAvailable {
		t.Errorf("slot 10:30 status = %q, want %q", slot.Status, SlotAvailable)
	}
}

func TestGenerateSlots_BlockRendersUnavailable(t *testing.T) {
	shift := Shift{Work: Interval{StartMin: 420, EndMin: 900}}
	busy := []Busy{
		{Interval: Interval{StartMin: 480, EndMin: 540}, Kind: BusyBlock},
		{Interval: Interval{StartMin: 600, EndMin: 630}, Kind: BusyReservation},
	}

	slots := GenerateSlots(shift, busy, NowUnknown, 30)

	for clock, want := range map[string]SlotStatus{
		"08:00": SlotUnavailable,
		"08:30": SlotUnavailable,
		"10:00": SlotBooked,
		"10:30": SlotAvailable,
	} {
		slot, _ := slotByTime(slots, clock)
		if slot.Status != want {
			t.Errorf("slot %s status = %q, want %q", clock, slot.Status, want)
		}
	}
}

// No available slot may fall inside the break window or inside any busy
// interval, regardless of layout.
func TestGenerateSlots_AvailableNeverInsideBreakOrBusy(t *testing.T) {
	brk := Interval{StartMin: 720, EndMin: 780}
	shift := Shift{Work: Interval{StartMin: 480, EndMin: 1020}, Break: &brk}
	busy := []Busy{
		{Interval: Interval{StartMin: 495, EndMin: 525}, Kind: BusyReservation},
		{Interval: Interval{StartMin: 900, EndMin: 990}, Kind: BusyBlock},
	}

	for _, step := range []int{15, 30, 60} {
		slots := GenerateSlots(shift, busy, NowUnknown, step)
		for _, slot := range slots {
			if slot.Status != SlotAvailable {
				continue
			}
			if brk.ContainsMinute(slot.TimeMin) {
				t.Errorf("step %d: available slot %s inside break", step, slot.Time)
			}
			for _, b := range busy {
				if b.Interval.ContainsMinute(slot.TimeMin) {
					t.Errorf("step %d: available slot %s inside busy %s", step, slot.Time, b.Interval)
				}
			}
		}
	}
}

func TestGenerateSlots_InvalidStep(t *testing.T) {
	shift := Shift{Work: Interval{StartMin: 420, EndMin: 900}}
	if slots := GenerateSlots(shift, nil, NowUnknown, 0); slots != nil {
		t.Errorf("expected nil slots for zero step, got %d", len(slots))
	}
}
