package domain

import "time"

// MaxTimerDelay is the largest delay a single-shot timer is trusted with
// (2^31-1 ms, the 32-bit millisecond timer bound).
const MaxTimerDelay = time.Duration(1<<31-1) * time.Millisecond

// DefaultRecheck is the intermediate wake-up used when a delay exceeds the bound.
const DefaultRecheck = time.Hour

// At returns the instant tod occurs on the calendar day of base, in base's location.
func At(base time.Time, tod TimeOfDay) time.Time {
	return time.Date(base.Year(), base.Month(), base.Day(), tod.Hour, tod.Minute, 0, 0, base.Location())
}

// NextOccurrence returns the first instant strictly after now (in now's
// location) whose wall clock equals tod. A candidate equal to now rolls to
// the next day, so a reminder set for the current minute never fires at once.
func NextOccurrence(now time.Time, tod TimeOfDay) time.Time {
	candidate := At(now, tod)
	if !candidate.After(now) {
		// AddDate keeps the wall clock across DST changes.
		candidate = At(now.AddDate(0, 0, 1), tod)
	}
	return candidate
}

// NextFireDelay is the pure delay form of NextOccurrence.
func NextFireDelay(now time.Time, tod TimeOfDay) time.Duration {
	return NextOccurrence(now, tod).Sub(now)
}

// FollowingOccurrence computes the fire after a scheduled one. It anchors on
// the scheduled instant so slow dispatch does not drift the schedule; if the
// process slept past that point it falls back to the next one after now.
func FollowingOccurrence(scheduled, now time.Time, tod TimeOfDay) time.Time {
	next := NextOccurrence(scheduled.In(now.Location()), tod)
	if !next.After(now) {
		next = NextOccurrence(now, tod)
	}
	return next
}

// FollowingInterval is FollowingOccurrence for the fixed-period variant.
func FollowingInterval(scheduled, now time.Time, every time.Duration) time.Time {
	next := scheduled.Add(every)
	if !next.After(now) {
		missed := now.Sub(scheduled)/every + 1
		next = scheduled.Add(missed * every)
	}
	return next
}

// SplitDelay bounds a delay for the timer primitive. When delay exceeds limit
// the caller must wake after recheck and recompute; final is false then.
func SplitDelay(delay, limit, recheck time.Duration) (wait time.Duration, final bool) {
	if delay < 0 {
		return 0, true
	}
	if limit <= 0 || delay <= limit {
		return delay, true
	}
	if recheck <= 0 || recheck > limit {
		recheck = limit
	}
	return recheck, false
}
