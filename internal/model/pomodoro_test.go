package model

import (
	"errors"
	"math"
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func newRunning(t *testing.T, seconds int) *PomodoroSession {
	t.Helper()
	return NewPomodoroSession("s1", "n1", "u1", t0, TargetRequest{DurationSeconds: intPtr(seconds)}, 1500)
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from  SessionState
		event SessionEvent
		to    SessionState
		ok    bool
	}{
		{StateRunning, EventPause, StatePaused, true},
		{StateRunning, EventResume, "", false},
		{StateRunning, EventComplete, StateCompleted, true},
		{StateRunning, EventCancel, StateCanceled, true},
		{StatePaused, EventPause, "", false},
		{StatePaused, EventResume, StateRunning, true},
		{StatePaused, EventComplete, StateCompleted, true},
		{StatePaused, EventCancel, StateCanceled, true},
		{StateCompleted, EventCancel, "", false},
		{StateCompleted, EventResume, "", false},
		{StateCanceled, EventComplete, "", false},
		{StateCanceled, EventPause, "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.event), func(t *testing.T) {
			got, ok := tt.from.Next(tt.event)
			if ok != tt.ok || got != tt.to {
				t.Fatalf("Next(%s) = (%q, %v) want (%q, %v)", tt.event, got, ok, tt.to, tt.ok)
			}
		})
	}
}

func TestStateFromStorage(t *testing.T) {
	tests := []struct {
		status string
		paused bool
		want   SessionState
	}{
		{"running", false, StateRunning},
		{"running", true, StatePaused},
		{"completed", true, StateCompleted},
		{"canceled", false, StateCanceled},
		{"cancelled", false, StateCanceled},
	}
	for _, tt := range tests {
		got, err := StateFromStorage(tt.status, tt.paused)
		if err != nil {
			t.Fatalf("StateFromStorage(%q, %v) error: %v", tt.status, tt.paused, err)
		}
		if got != tt.want {
			t.Fatalf("StateFromStorage(%q, %v) = %s want %s", tt.status, tt.paused, got, tt.want)
		}
		if got.Status() == "" {
			t.Fatalf("empty status for %s", got)
		}
	}
	if _, err := StateFromStorage("exploded", false); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
}

func TestPauseResumeRoundTrip(t *testing.T) {
	s := newRunning(t, 600)

	if err := s.Pause(t0.Add(200*time.Second), intPtr(400)); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !s.IsPaused() || s.PausedAt == nil || *s.RemainingSeconds != 400 {
		t.Fatalf("unexpected paused session: %+v", s)
	}
	if got := s.RemainingAt(t0.Add(240*time.Second), 1500); got != 400 {
		t.Fatalf("paused remaining = %d want 400", got)
	}

	resumeAt := t0.Add(250 * time.Second)
	if err := s.Resume(resumeAt); err != nil {
		t.Fatalf("resume: %v", err)
	}
	want := t0.Add(650 * time.Second)
	if !s.TargetEndAt.Equal(want) {
		t.Fatalf("target after resume = %s want %s", s.TargetEndAt, want)
	}
	if !s.StartedAt.Equal(resumeAt) || s.PausedAt != nil || s.RemainingSeconds != nil {
		t.Fatalf("resume left stale fields: %+v", s)
	}
}

func TestPauseRejections(t *testing.T) {
	s := newRunning(t, 600)
	if err := s.Pause(t0, nil); !errors.Is(err, ErrInvalidRemaining) {
		t.Fatalf("missing remaining: got %v", err)
	}
	if err := s.Pause(t0, intPtr(-1)); !errors.Is(err, ErrInvalidRemaining) {
		t.Fatalf("negative remaining: got %v", err)
	}
	if err := s.Pause(t0, intPtr(math.MaxInt)); !errors.Is(err, ErrInvalidRemaining) {
		t.Fatalf("oversized remaining: got %v", err)
	}
	if err := s.Pause(t0, intPtr(MaxSessionSeconds+1)); !errors.Is(err, ErrInvalidRemaining) {
		t.Fatalf("remaining above cap: got %v", err)
	}
	if s.State != StateRunning {
		t.Fatalf("rejected pause changed state to %s", s.State)
	}
	if err := s.Pause(t0, intPtr(0)); err != nil {
		t.Fatalf("zero remaining should be accepted: %v", err)
	}
	if err := s.Pause(t0, intPtr(10)); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double pause: got %v", err)
	}
}

func TestResumeRejections(t *testing.T) {
	s := newRunning(t, 600)
	if err := s.Resume(t0); !errors.Is(err, ErrNotPaused) {
		t.Fatalf("resume running: got %v", err)
	}

	if err := s.Pause(t0, intPtr(0)); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := s.Resume(t0); !errors.Is(err, ErrNotPaused) {
		t.Fatalf("resume with zero remaining: got %v", err)
	}

	if err := s.Cancel(t0); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := s.Resume(t0); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("resume canceled: got %v", err)
	}
}

func TestCompleteElapsedGate(t *testing.T) {
	s := newRunning(t, 10)

	err := s.Complete(t0.Add(5*time.Second), 1500)
	var notElapsed *NotElapsedError
	if !errors.As(err, &notElapsed) {
		t.Fatalf("expected NotElapsedError, got %v", err)
	}
	if notElapsed.Remaining != 5 {
		t.Fatalf("remaining = %d want 5", notElapsed.Remaining)
	}
	if s.State != StateRunning || s.EndedAt != nil {
		t.Fatalf("rejected complete mutated session: %+v", s)
	}

	doneAt := t0.Add(11 * time.Second)
	if err := s.Complete(doneAt, 1500); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if s.State != StateCompleted || s.EndedAt == nil || !s.EndedAt.Equal(doneAt) {
		t.Fatalf("unexpected completed session: %+v", s)
	}
}

func TestCompleteFallsBackToNoteDuration(t *testing.T) {
	s := newRunning(t, 10)
	s.TargetEndAt = nil

	err := s.Complete(t0.Add(100*time.Second), 300)
	var notElapsed *NotElapsedError
	if !errors.As(err, &notElapsed) || notElapsed.Remaining != 200 {
		t.Fatalf("expected 200 seconds remaining, got %v", err)
	}
	if err := s.Complete(t0.Add(300*time.Second), 300); err != nil {
		t.Fatalf("complete at boundary: %v", err)
	}
}

func TestTerminalSessionsAreImmutable(t *testing.T) {
	for _, terminal := range []SessionState{StateCompleted, StateCanceled} {
		s := newRunning(t, 10)
		ended := t0.Add(time.Minute)
		s.State = terminal
		s.EndedAt = &ended

		later := t0.Add(time.Hour)
		if err := s.Pause(later, intPtr(5)); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s pause: %v", terminal, err)
		}
		if err := s.Resume(later); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s resume: %v", terminal, err)
		}
		if err := s.Complete(later, 0); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s complete: %v", terminal, err)
		}
		if err := s.Cancel(later); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s cancel: %v", terminal, err)
		}
		if !s.EndedAt.Equal(ended) || s.State != terminal {
			t.Errorf("%s session mutated: %+v", terminal, s)
		}
	}
}

func TestRemainingAtCountsDownToZero(t *testing.T) {
	s := newRunning(t, 30)

	prev := s.RemainingAt(t0, 1500)
	if prev != 30 {
		t.Fatalf("initial remaining = %d want 30", prev)
	}
	for step := 1; step <= 40; step++ {
		got := s.RemainingAt(t0.Add(time.Duration(step)*time.Second), 1500)
		if got < 0 {
			t.Fatalf("negative remaining at +%ds", step)
		}
		if got > prev || (prev > 0 && got == prev) {
			t.Fatalf("remaining not decreasing at +%ds: %d after %d", step, got, prev)
		}
		prev = got
	}
	if prev != 0 {
		t.Fatalf("remaining after target = %d want 0", prev)
	}
}

func TestResolveTargetPrecedence(t *testing.T) {
	deadline := t0.Add(2 * time.Hour)

	tests := []struct {
		name        string
		req         TargetRequest
		noteSeconds int
		want        time.Time
	}{
		{name: "deadline beats duration", req: TargetRequest{Deadline: &deadline, DurationSeconds: intPtr(120)}, noteSeconds: 1500, want: deadline},
		{name: "duration beats note", req: TargetRequest{DurationSeconds: intPtr(120)}, noteSeconds: 1500, want: t0.Add(120 * time.Second)},
		{name: "non-positive duration ignored", req: TargetRequest{DurationSeconds: intPtr(0)}, noteSeconds: 900, want: t0.Add(900 * time.Second)},
		{name: "oversized duration ignored", req: TargetRequest{DurationSeconds: intPtr(math.MaxInt)}, noteSeconds: 900, want: t0.Add(900 * time.Second)},
		{name: "duration at cap", req: TargetRequest{DurationSeconds: intPtr(MaxSessionSeconds)}, noteSeconds: 900, want: t0.Add(MaxSessionSeconds * time.Second)},
		{name: "note duration", noteSeconds: 900, want: t0.Add(900 * time.Second)},
		{name: "system default", want: t0.Add(DefaultPomodoroSeconds * time.Second)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveTarget(t0, tt.req, tt.noteSeconds)
			if !got.Equal(tt.want) {
				t.Fatalf("ResolveTarget = %s want %s", got, tt.want)
			}
		})
	}
}

func TestOversizedOverridesCannotSkipElapsedGate(t *testing.T) {
	s := NewPomodoroSession("s1", "n1", "u1", t0, TargetRequest{DurationSeconds: intPtr(math.MaxInt)}, 600)
	if !s.TargetEndAt.Equal(t0.Add(600 * time.Second)) {
		t.Fatalf("target = %s want note duration after start", s.TargetEndAt)
	}

	if err := s.Pause(t0, intPtr(math.MaxInt)); !errors.Is(err, ErrInvalidRemaining) {
		t.Fatalf("oversized pause: got %v", err)
	}
	var notElapsed *NotElapsedError
	if err := s.Complete(t0, 600); !errors.As(err, &notElapsed) || notElapsed.Remaining != 600 {
		t.Fatalf("complete at start: got %v", err)
	}
}
