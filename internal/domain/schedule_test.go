package domain

import (
	"testing"
	"time"
)

// helper: build a wall-clock time in the given tz
func mustLocal(t *testing.T, tz string, y int, m time.Month, d, hh, mm int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return time.Date(y, m, d, hh, mm, 0, 0, loc)
}

func TestNextFireDelay_LaterToday(t *testing.T) {
	now := mustLocal(t, "UTC", 2025, time.May, 5, 7, 0)
	got := NextFireDelay(now, MustTimeOfDay("08:00"))
	if got != time.Hour {
		t.Fatalf("want 1h, got %s", got)
	}
}

func TestNextFireDelay_AlreadyPassedRollsToTomorrow(t *testing.T) {
	now := mustLocal(t, "UTC", 2025, time.May, 5, 9, 0)
	got := NextFireDelay(now, MustTimeOfDay("08:00"))
	if got != 23*time.Hour {
		t.Fatalf("want 23h, got %s", got)
	}
	next := NextOccurrence(now, MustTimeOfDay("08:00"))
	if next.Day() != 6 || next.Hour() != 8 {
		t.Fatalf("want May 6 08:00, got %s", next)
	}
}

func TestNextOccurrence_CurrentMinuteRolls(t *testing.T) {
	now := mustLocal(t, "UTC", 2025, time.May, 5, 8, 0)
	next := NextOccurrence(now, MustTimeOfDay("08:00"))
	if next.Sub(now) != 24*time.Hour {
		t.Fatalf("want 24h, got %s", next.Sub(now))
	}

	// Seconds into the same minute still roll: the candidate is 08:00:00.
	now = now.Add(30 * time.Second)
	next = NextOccurrence(now, MustTimeOfDay("08:00"))
	if next.Day() != 6 {
		t.Fatalf("want tomorrow, got %s", next)
	}
}

func TestNextOccurrence_KeepsWallClockAcrossDST(t *testing.T) {
	// Europe/Berlin springs forward on 2025-03-30.
	now := mustLocal(t, "Europe/Berlin", 2025, time.March, 29, 9, 0)
	next := NextOccurrence(now, MustTimeOfDay("08:00"))
	if next.Hour() != 8 || next.Day() != 30 {
		t.Fatalf("want Mar 30 08:00 local, got %s", next)
	}
	if next.Sub(now) != 22*time.Hour {
		t.Fatalf("want 22h across the DST gap, got %s", next.Sub(now))
	}
}

func TestFollowingOccurrence_AnchorsOnScheduled(t *testing.T) {
	scheduled := mustLocal(t, "UTC", 2025, time.May, 5, 8, 0)
	// dispatch took 40 seconds
	now := scheduled.Add(40 * time.Second)
	next := FollowingOccurrence(scheduled, now, MustTimeOfDay("08:00"))
	if !next.Equal(scheduled.Add(24 * time.Hour)) {
		t.Fatalf("want exactly +24h, got %s", next)
	}
}

func TestFollowingOccurrence_SkipsMissedDays(t *testing.T) {
	scheduled := mustLocal(t, "UTC", 2025, time.May, 5, 8, 0)
	// process was suspended for three days
	now := scheduled.Add(72*time.Hour + time.Hour)
	next := FollowingOccurrence(scheduled, now, MustTimeOfDay("08:00"))
	want := mustLocal(t, "UTC", 2025, time.May, 9, 8, 0)
	if !next.Equal(want) {
		t.Fatalf("want %s, got %s", want, next)
	}
}

func TestFollowingInterval(t *testing.T) {
	scheduled := mustLocal(t, "UTC", 2025, time.May, 5, 8, 0)
	every := 30 * time.Minute

	next := FollowingInterval(scheduled, scheduled.Add(time.Second), every)
	if !next.Equal(scheduled.Add(every)) {
		t.Fatalf("want +30m, got %s", next)
	}

	next = FollowingInterval(scheduled, scheduled.Add(95*time.Minute), every)
	if !next.Equal(scheduled.Add(120 * time.Minute)) {
		t.Fatalf("want +120m, got %s", next)
	}
}

func TestSplitDelay(t *testing.T) {
	wait, final := SplitDelay(23*time.Hour, MaxTimerDelay, DefaultRecheck)
	if !final || wait != 23*time.Hour {
		t.Fatalf("want direct 23h, got %s final=%v", wait, final)
	}

	wait, final = SplitDelay(30*24*time.Hour, MaxTimerDelay, DefaultRecheck)
	if final || wait != time.Hour {
		t.Fatalf("want 1h recheck, got %s final=%v", wait, final)
	}

	wait, final = SplitDelay(-time.Second, MaxTimerDelay, DefaultRecheck)
	if !final || wait != 0 {
		t.Fatalf("want 0 for negative delay, got %s", wait)
	}
}
