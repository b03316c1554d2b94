// Package schedule is the pure scheduling engine: time intervals, shift
// resolution and slot generation. It holds no state and performs no I/O;
// the service layer feeds it data and interprets its results.
//
// All times are minutes since midnight of a single facility-local calendar
// day. Intervals are half-open [start, end). There is no timezone handling.
package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	ErrInvalidInterval = errors.New("interval start must be before end")
	ErrInvalidClock    = errors.New("clock value must be HH:MM between 00:00 and 23:59")
)

const MinutesPerDay = 24 * 60

// Accepts an optional leading zero on the hour ("9:00" and "09:00").
var clockRegex = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)

type Interval struct {
	StartMin int `json:"start_min"`
	EndMin   int `json:"end_min"`
}

// NewInterval builds a half-open interval. Zero-length and inverted
// intervals are rejected, as are boundaries outside a single day.
func NewInterval(startMin, endMin int) (Interval, error) {
	if startMin < 0 || endMin > MinutesPerDay {
		return Interval{}, fmt.Errorf("%w: [%d, %d)", ErrInvalidInterval, startMin, endMin)
	}
	if startMin >= endMin {
		return Interval{}, fmt.Errorf("%w: [%d, %d)", ErrInvalidInterval, startMin, endMin)
	}
	return Interval{StartMin: startMin, EndMin: endMin}, nil
}

// ParseInterval builds an interval from two HH:MM boundaries.
func ParseInterval(start, end string) (Interval, error) {
	startMin, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	endMin, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(startMin, endMin)
}

// ParseClock converts an HH:MM string to minutes since midnight.
func ParseClock(s string) (int, error) {
	m := clockRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	return hours*60 + minutes, nil
}

// Clock formats minutes since midnight as a zero-padded HH:MM string.
func Clock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// Overlaps reports whether two half-open intervals share any minute.
func (i Interval) Overlaps(o Interval) bool {
	return i.StartMin < o.EndMin && o.StartMin < i.EndMin
}

// Contains reports whether o lies entirely within i.
func (i Interval) Contains(o Interval) bool {
	return i.StartMin <= o.StartMin && o.EndMin <= i.EndMin
}

// ContainsMinute reports whether minute t falls within [start, end).
func (i Interval) ContainsMinute(t int) bool {
	return i.StartMin <= t && t < i.EndMin
}

func (i Interval) DurationMin() int {
	return i.EndMin - i.StartMin
}

func (i Interval) Start() string { return Clock(i.StartMin) }
func (i Interval) End() string   { return Clock(i.EndMin) }

func (i Interval) String() string {
	return Clock(i.StartMin) + "-" + Clock(i.EndMin)
}
