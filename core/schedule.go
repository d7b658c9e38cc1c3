package core

import (
	"fmt"
	"time"
)

// CheckinSchedule computes the next eligible check-in from the last accepted one.
type CheckinSchedule struct {
	Window      time.Duration
	SafetyWait  time.Duration
	LastCheckin *time.Time
}

// Next returns LastCheckin+Window, or now+Window when the last check-in is unknown.
// A result that is not after now is replaced by now+SafetyWait.
func (s CheckinSchedule) Next(now time.Time) time.Time {
	candidate := now.Add(s.Window)
	if s.LastCheckin != nil {
		candidate = s.LastCheckin.Add(s.Window)
	}
	if !candidate.After(now) {
		return now.Add(s.SafetyWait)
	}
	return candidate
}

// Countdown formats d as "12h 03m 09s".
func Countdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	return fmt.Sprintf("%02dh %02dm %02ds", int64(h), int64(m), int64(d/time.Second))
}
