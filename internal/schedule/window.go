// Package schedule decides whether an access code is valid at a given moment.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/porton/gate-relay/internal/model"
)

const minutesPerDay = 24 * 60

// ErrInvalidFormat is returned for times that are not "HH:MM" on a 24-hour clock.
var ErrInvalidFormat = errors.New("invalid time format, expected HH:MM")

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	var hour, minute int
	switch len(s) {
	case 4:
		if s[1] != ':' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		hour, minute = digits(s[:1]), digits(s[2:])
	case 5:
		if s[2] != ':' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		hour, minute = digits(s[:2]), digits(s[3:])
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return hour*60 + minute, nil
}

// digits parses a run of ASCII digits, returning -1 on anything else.
func digits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return -1
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// Window is a daily time range in minutes since midnight, both ends inclusive.
// A window whose start is after its end wraps past midnight.
type Window struct {
	StartMinutes int
	EndMinutes   int
}

// ParseWindow builds a Window from "HH:MM" bounds.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	return Window{StartMinutes: s, EndMinutes: e}, nil
}

func (w Window) Overnight() bool {
	return w.StartMinutes > w.EndMinutes
}

// Contains reports whether minute (0..1439) falls inside the window. Equal
// bounds cover that single minute only.
func (w Window) Contains(minute int) bool {
	if w.Overnight() {
		return minute >= w.StartMinutes || minute <= w.EndMinutes
	}
	return minute >= w.StartMinutes && minute <= w.EndMinutes
}

// Duration is the length of time the window stays open each day.
func (w Window) Duration() time.Duration {
	span := w.EndMinutes - w.StartMinutes
	if w.Overnight() {
		span += minutesPerDay
	}
	return time.Duration(span+1) * time.Minute
}

// IsAllowed reports whether code grants access at the instant at, using the
// calendar fields of at's own location. The day check runs first: a day
// outside code.Days denies without parsing the times.
func IsAllowed(code model.AccessCode, at time.Time) (bool, error) {
	if !code.Days.Contains(int(at.Weekday())) {
		return false, nil
	}

	w, err := ParseWindow(code.StartTime, code.EndTime)
	if err != nil {
		return false, err
	}

	return w.Contains(at.Hour()*60 + at.Minute()), nil
}
