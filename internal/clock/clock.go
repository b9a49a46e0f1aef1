// Package clock supplies the current time in the gate's configured timezone.
package clock

import (
	"fmt"
	"time"
)

// DefaultTimezone is used when no zone is configured. The host zone is never
// used as a fallback.
const DefaultTimezone = "America/Costa_Rica"

type Clock interface {
	Now() time.Time
}

type zoneClock struct {
	loc *time.Location
}

// New returns a Clock reading the system time converted into loc.
func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &zoneClock{loc: loc}
}

func (c *zoneClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// LoadLocation resolves an IANA zone name, falling back to DefaultTimezone
// when name is empty.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

type fixedClock struct {
	t time.Time
}

// Fixed returns a Clock that always reports t.
func Fixed(t time.Time) Clock {
	return fixedClock{t: t}
}

func (c fixedClock) Now() time.Time {
	return c.t
}
