package schedule

import "testing"

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(DefaultTemplates())
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestNewShift_BreakContainment(t *testing.T) {
	work := Interval{StartMin: 420, EndMin: 900}

	if _, err := NewShift(work, &Interval{StartMin: 660, EndMin: 690}); err != nil {
		t.Errorf("contained break rejected: %v", err)
	}
	if _, err := NewShift(work, &Interval{StartMin: 880, EndMin: 940}); err == nil {
		t.Error("break extending past work end must be rejected")
	}
	if _, err := NewShift(work, nil); err != nil {
		t.Errorf("shift without break rejected: %v", err)
	}
}

func TestResolve_TemplatePrecedence(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name      string
		shiftType string
		wantStart int
		wantEnd   int
	}{
		{"morning", ShiftMorning, 420, 900},
		{"afternoon", ShiftAfternoon, 660, 1140},
		{"night", ShiftNight, 840, 1320},
		{"unknown type defaults to morning", "weekend", 420, 900},
		{"empty type defaults to morning", "", 420, 900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shift, source := r.Resolve(tt.shiftType, nil)
			if source != SourceTemplate {
				t.Errorf("source = %q, want %q", source, SourceTemplate)
			}
			if shift.Work.StartMin != tt.wantStart || shift.Work.EndMin != tt.wantEnd {
				t.Errorf("work = %s, want %s-%s", shift.Work, Clock(tt.wantStart), Clock(tt.wantEnd))
			}
		})
	}
}

func TestResolve_OverrideWins(t *testing.T) {
	r := newTestResolver(t)

	override := &Override{
		WorkStart:  "10:00",
		WorkEnd:    "18:00",
		BreakStart: "13:00",
		BreakEnd:   "13:30",
	}

	shift, source := r.Resolve(ShiftMorning, override)
	if source != SourceOverride {
		t.Fatalf("source = %q, want %q", source, SourceOverride)
	}
	if shift.Work.Start() != "10:00" || shift.Work.End() != "18:00" {
		t.Errorf("work = %s, want 10:00-18:00", shift.Work)
	}
	if shift.Break == nil || shift.Break.Start() != "13:00" {
		t.Errorf("break = %v, want 13:00-13:30", shift.Break)
	}
}

func TestResolve_MalformedOverrideFallsBack(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name     string
		override *Override
	}{
		{"missing work end", &Override{WorkStart: "10:00"}},
		{"inverted work window", &Override{WorkStart: "18:00", WorkEnd: "10:00"}},
		{"garbage clock", &Override{WorkStart: "ten", WorkEnd: "18:00"}},
		{"break outside work", &Override{WorkStart: "10:00", WorkEnd: "14:00", BreakStart: "15:00", BreakEnd: "15:30"}},
		{"half a break", &Override{WorkStart: "10:00", WorkEnd: "18:00", BreakStart: "13:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shift, source := r.Resolve(ShiftNight, tt.override)
			if source != SourceFallback {
				t.Errorf("source = %q, want %q", source, SourceFallback)
			}
			// Falls back to the trainer's own template, not morning.
			if shift.Work.Start() != "14:00" || shift.Work.End() != "22:00" {
				t.Errorf("work = %s, want the night template 14:00-22:00", shift.Work)
			}
		})
	}
}

func TestResolve_NilAndEmptyOverrideUseTemplate(t *testing.T) {
	r := newTestResolver(t)

	if _, source := r.Resolve(ShiftAfternoon, nil); source != SourceTemplate {
		t.Errorf("nil override: source = %q, want %q", source, SourceTemplate)
	}
	if _, source := r.Resolve(ShiftAfternoon, &Override{}); source != SourceTemplate {
		t.Errorf("empty override: source = %q, want %q", source, SourceTemplate)
	}
}
