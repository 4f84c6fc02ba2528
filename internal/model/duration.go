package model

import "time"

const DefaultPomodoroSeconds = 25 * 60

// MaxSessionSeconds bounds client-supplied durations and remainders. Larger
// values would overflow time.Duration and wrap the target into the past.
const MaxSessionSeconds = 30 * 24 * 60 * 60

// TargetRequest carries the optional client overrides for a new session.
// Both fields have already been coerced at the HTTP boundary: an unparsable
// deadline or a non-integer duration arrives here as nil.
type TargetRequest struct {
	Deadline        *time.Time
	DurationSeconds *int
}

// ResolveTarget decides when a new session is due. First match wins:
// explicit deadline, positive duration override, the note's own duration,
// then DefaultPomodoroSeconds.
func ResolveTarget(startedAt time.Time, req TargetRequest, noteSeconds int) time.Time {
	if req.Deadline != nil && !req.Deadline.IsZero() {
		return req.Deadline.UTC()
	}
	return startedAt.Add(time.Duration(ResolveDurationSeconds(req, noteSeconds)) * time.Second)
}

// ResolveDurationSeconds is the duration half of ResolveTarget, for callers
// that have no deadline override.
func ResolveDurationSeconds(req TargetRequest, noteSeconds int) int {
	if d := req.DurationSeconds; d != nil && *d > 0 && *d <= MaxSessionSeconds {
		return *req.DurationSeconds
	}
	if noteSeconds > 0 {
		return noteSeconds
	}
	return DefaultPomodoroSeconds
}
