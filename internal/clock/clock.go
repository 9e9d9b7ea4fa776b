// Package clock abstracts wall-clock time and single-shot timers so the
// scheduler can be driven by a fake in tests.
package clock

import "time"

// Timer is a pending single-shot callback.
type Timer interface {
	// Stop cancels the timer. It reports false if the timer already fired or was stopped.
	Stop() bool
}

// Clock provides the current time and a timer primitive.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is the system clock, reporting times in Location.
type Real struct {
	Location *time.Location
}

// New returns the system clock for loc (UTC when nil).
func New(loc *time.Location) Real {
	if loc == nil {
		loc = time.UTC
	}
	return Real{Location: loc}
}

func (r Real) Now() time.Time {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	return time.Now().In(loc)
}

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
