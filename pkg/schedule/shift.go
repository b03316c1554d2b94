package schedule

import (
	"errors"
	"fmt"
)

// Named shift types a trainer can be assigned to.
const (
	ShiftMorning   = "morning"
	ShiftAfternoon = "afternoon"
	ShiftNight     = "night"
)

var ErrInvalidShift = errors.New("break window must lie within working hours")

// Shift is a trainer's working window for one day, with at most one break.
type Shift struct {
	Work  Interval  `json:"work"`
	Break *Interval `json:"break,omitempty"`
}

// NewShift enforces break containment: workStart <= breakStart < breakEnd <= workEnd.
func NewShift(work Interval, brk *Interval) (Shift, error) {
	if brk != nil && !work.Contains(*brk) {
		return Shift{}, fmt.Errorf("%w: work %s, break %s", ErrInvalidShift, work, brk)
	}
	return Shift{Work: work, Break: brk}, nil
}

// ContainsInterval reports whether iv lies within the working window.
func (s Shift) ContainsInterval(iv Interval) bool {
	return s.Work.Contains(iv)
}

// BreakIntersects reports whether iv overlaps the break window, if any.
func (s Shift) BreakIntersects(iv Interval) bool {
	return s.Break != nil && s.Break.Overlaps(iv)
}

// Override is a trainer-specific working-hours record, typically sourced
// from the trainer's profile. Fields are raw HH:MM strings and may be
// incomplete or malformed; Resolver treats a malformed override as absent.
type Override struct {
	WorkStart  string
	WorkEnd    string
	BreakStart string
	BreakEnd   string
}

func (o *Override) empty() bool {
	return o == nil || (o.WorkStart == "" && o.WorkEnd == "" && o.BreakStart == "" && o.BreakEnd == "")
}

// Source records where a resolved shift came from, so callers can log
// fallback substitutions as data-quality warnings.
type Source string

const (
	SourceOverride Source = "override"
	SourceTemplate Source = "template"
	// SourceFallback means an override was present but malformed and the
	// trainer's template was substituted.
	SourceFallback Source = "fallback"
)

// Resolver maps shift types to working-hour templates.
type Resolver struct {
	templates map[string]Shift
}

// NewResolver builds a resolver over the given templates. The map must
// contain ShiftMorning; it is the default for trainers with no shift type.
func NewResolver(templates map[string]Shift) (*Resolver, error) {
	if _, ok := templates[ShiftMorning]; !ok {
		return nil, fmt.Errorf("resolver requires a %q template", ShiftMorning)
	}
	return &Resolver{templates: templates}, nil
}

// DefaultTemplates returns the three fixed shift templates:
// morning 07:00-15:00, afternoon 11:00-19:00, night 14:00-22:00.
func DefaultTemplates() map[string]Shift {
	return map[string]Shift{
		ShiftMorning:   {Work: Interval{StartMin: 7 * 60, EndMin: 15 * 60}},
		ShiftAfternoon: {Work: Interval{StartMin: 11 * 60, EndMin: 19 * 60}},
		ShiftNight:     {Work: Interval{StartMin: 14 * 60, EndMin: 22 * 60}},
	}
}

// Resolve returns the shift for a trainer. An explicit override wins when it
// is well-formed; otherwise the trainer's named template applies, defaulting
// to morning. A malformed override is reported via SourceFallback rather than
// an error, mirroring the lenient behavior the booking flow depends on.
func (r *Resolver) Resolve(shiftType string, override *Override) (Shift, Source) {
	if !override.empty() {
		if shift, err := parseOverride(override); err == nil {
			return shift, SourceOverride
		}
		return r.template(shiftType), SourceFallback
	}
	return r.template(shiftType), SourceTemplate
}

func (r *Resolver) template(shiftType string) Shift {
	if shift, ok := r.templates[shiftType]; ok {
		return shift
	}
	return r.templates[ShiftMorning]
}

func parseOverride(o *Override) (Shift, error) {
	work, err := ParseInterval(o.WorkStart, o.WorkEnd)
	if err != nil {
		return Shift{}, err
	}

	var brk *Interval
	if o.BreakStart != "" || o.BreakEnd != "" {
		b, err := ParseInterval(o.BreakStart, o.BreakEnd)
		if err != nil {
			return Shift{}, err
		}
		brk = &b
	}

	return NewShift(work, brk)
}
