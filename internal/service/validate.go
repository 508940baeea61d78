package service

import "time"

const (
	// MinEventDuration is the shortest schedulable event.
	MinEventDuration = 15 * time.Minute
	// MaxEventDuration is the longest schedulable event.
	MaxEventDuration = 8 * time.Hour
)

// ValidateEventWindow checks a candidate event window against the scheduling
// rules. The rules are evaluated in a fixed order and the first violation is
// returned: end after start, minimum duration, start in the future, maximum
// duration.
func ValidateEventWindow(startsAt, endsAt, now time.Time) error {
	if !endsAt.After(startsAt) {
		return &ValidationError{Msg: "end time must be after start time"}
	}
	if endsAt.Sub(startsAt) < MinEventDuration {
		return &ValidationError{Msg: "event must last at least 15 minutes"}
	}
	if !startsAt.After(now) {
		return &ValidationError{Msg: "start time must be in the future"}
	}
	if endsAt.Sub(startsAt) > MaxEventDuration {
		return &ValidationError{Msg: "event cannot last longer than 8 hours"}
	}
	return nil
}
