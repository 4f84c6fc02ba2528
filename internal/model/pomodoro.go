package model

import (
	"errors"
	"fmt"
	"time"

	"notepomo/internal/timeutil"
)

// SessionState folds the persisted status column and the pause flag into one
// closed set, so "paused and completed" cannot be expressed.
type SessionState string

const (
	StateRunning   SessionState = "running"
	StatePaused    SessionState = "paused"
	StateCompleted SessionState = "completed"
	StateCanceled  SessionState = "canceled"
)

// Persisted values of pomodoro_sessions.status.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

type SessionEvent string

const (
	EventPause    SessionEvent = "pause"
	EventResume   SessionEvent = "resume"
	EventComplete SessionEvent = "complete"
	EventCancel   SessionEvent = "cancel"
)

var transitions = map[SessionState]map[SessionEvent]SessionState{
	StateRunning: {
		EventPause:    StatePaused,
		EventComplete: StateCompleted,
		EventCancel:   StateCanceled,
	},
	StatePaused: {
		EventResume:   StateRunning,
		EventComplete: StateCompleted,
		EventCancel:   StateCanceled,
	},
}

var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrInvalidRemaining  = errors.New("remaining seconds must be an integer between 0 and 2592000")
	ErrNotPaused         = errors.New("session is not paused")
	ErrUnknownStatus     = errors.New("unknown session status")
)

// NotElapsedError rejects a completion attempted before the interval is due.
type NotElapsedError struct {
	Remaining int
}

func (e *NotElapsedError) Error() string {
	return fmt.Sprintf("session has %d seconds remaining", e.Remaining)
}

// Next returns the state reached by applying event, if the table allows it.
func (s SessionState) Next(event SessionEvent) (SessionState, bool) {
	next, ok := transitions[s][event]
	return next, ok
}

func (s SessionState) IsTerminal() bool {
	return s == StateCompleted || s == StateCanceled
}

// Status is the value stored in the status column.
func (s SessionState) Status() string {
	switch s {
	case StateCompleted:
		return StatusCompleted
	case StateCanceled:
		return StatusCanceled
	default:
		return StatusRunning
	}
}

// StateFromStorage rebuilds the state from the two persisted columns.
// The pause flag is ignored on terminal rows.
func StateFromStorage(status string, isPaused bool) (SessionState, error) {
	switch status {
	case StatusRunning:
		if isPaused {
			return StatePaused, nil
		}
		return StateRunning, nil
	case StatusCompleted:
		return StateCompleted, nil
	case StatusCanceled, "cancelled":
		return StateCanceled, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, status)
}

type PomodoroSession struct {
	ID               string       `json:"sessionId"`
	NoteID           string       `json:"noteId"`
	UserID           string       `json:"userId"`
	State            SessionState `json:"state"`
	StartedAt        time.Time    `json:"startedAt"`
	EndedAt          *time.Time   `json:"endedAt,omitempty"`
	TargetEndAt      *time.Time   `json:"targetAt,omitempty"`
	RemainingSeconds *int         `json:"remainingSeconds,omitempty"`
	PausedAt         *time.Time   `json:"pausedAt,omitempty"`
	Version          int          `json:"version"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// NewPomodoroSession opens a running session at now with a resolved target.
func NewPomodoroSession(id, noteID, userID string, now time.Time, req TargetRequest, noteSeconds int) *PomodoroSession {
	now = timeutil.UTC(now)
	target := ResolveTarget(now, req, noteSeconds)
	return &PomodoroSession{
		ID:          id,
		NoteID:      noteID,
		UserID:      userID,
		State:       StateRunning,
		StartedAt:   now,
		TargetEndAt: &target,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *PomodoroSession) IsPaused() bool {
	return s.State == StatePaused
}

// EffectiveTarget is target_end_at, or started_at plus the note's duration
// for rows that never had a target recorded.
func (s *PomodoroSession) EffectiveTarget(noteSeconds int) time.Time {
	if s.TargetEndAt != nil {
		return s.TargetEndAt.UTC()
	}
	if noteSeconds <= 0 {
		noteSeconds = DefaultPomodoroSeconds
	}
	return s.StartedAt.UTC().Add(time.Duration(noteSeconds) * time.Second)
}

// RemainingAt projects the countdown at now. A paused session reports its
// stored remainder; a running one counts down to its target, floored at 0.
func (s *PomodoroSession) RemainingAt(now time.Time, noteSeconds int) int {
	if s.State == StatePaused && s.RemainingSeconds != nil {
		return max(*s.RemainingSeconds, 0)
	}
	if s.State.IsTerminal() {
		return 0
	}
	return max(timeutil.SecondsUntil(now, s.EffectiveTarget(noteSeconds)), 0)
}

func (s *PomodoroSession) apply(event SessionEvent) error {
	next, ok := s.State.Next(event)
	if !ok {
		return fmt.Errorf("%w: cannot %s a %s session", ErrInvalidTransition, event, s.State)
	}
	s.State = next
	return nil
}

// Pause freezes the countdown at the client-reported remainder.
func (s *PomodoroSession) Pause(now time.Time, remainingSeconds *int) error {
	if s.State != StateRunning {
		return fmt.Errorf("%w: cannot %s a %s session", ErrInvalidTransition, EventPause, s.State)
	}
	if remainingSeconds == nil || *remainingSeconds < 0 || *remainingSeconds > MaxSessionSeconds {
		return ErrInvalidRemaining
	}
	if err := s.apply(EventPause); err != nil {
		return err
	}
	now = timeutil.UTC(now)
	remaining := *remainingSeconds
	s.RemainingSeconds = &remaining
	s.PausedAt = &now
	s.UpdatedAt = now
	return nil
}

// Resume restarts the countdown from now using the stored remainder.
// A paused session with nothing left cannot be resumed; complete it instead.
func (s *PomodoroSession) Resume(now time.Time) error {
	if s.State.IsTerminal() {
		return fmt.Errorf("%w: cannot %s a %s session", ErrInvalidTransition, EventResume, s.State)
	}
	if s.State != StatePaused || s.RemainingSeconds == nil || *s.RemainingSeconds <= 0 {
		return ErrNotPaused
	}
	if err := s.apply(EventResume); err != nil {
		return err
	}
	now = timeutil.UTC(now)
	target := now.Add(time.Duration(*s.RemainingSeconds) * time.Second)
	s.StartedAt = now
	s.TargetEndAt = &target
	s.RemainingSeconds = nil
	s.PausedAt = nil
	s.UpdatedAt = now
	return nil
}

// Complete closes the session once its interval has elapsed. noteSeconds is
// only consulted for rows without a target.
func (s *PomodoroSession) Complete(now time.Time, noteSeconds int) error {
	if _, ok := s.State.Next(EventComplete); !ok {
		return fmt.Errorf("%w: cannot %s a %s session", ErrInvalidTransition, EventComplete, s.State)
	}
	now = timeutil.UTC(now)
	if now.Before(s.EffectiveTarget(noteSeconds)) {
		return &NotElapsedError{Remaining: timeutil.SecondsUntil(now, s.EffectiveTarget(noteSeconds))}
	}
	if err := s.apply(EventComplete); err != nil {
		return err
	}
	s.close(now)
	return nil
}

// Cancel closes the session unconditionally.
func (s *PomodoroSession) Cancel(now time.Time) error {
	if err := s.apply(EventCancel); err != nil {
		return err
	}
	s.close(timeutil.UTC(now))
	return nil
}

func (s *PomodoroSession) close(now time.Time) {
	s.EndedAt = &now
	s.RemainingSeconds = nil
	s.PausedAt = nil
	s.UpdatedAt = now
}
