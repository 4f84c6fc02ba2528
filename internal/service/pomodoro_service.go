package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"notepomo/internal/clock"
	apperrors "notepomo/internal/errors"
	"notepomo/internal/model"
	"notepomo/internal/repository"
	"notepomo/internal/timeutil"
)

// PomodoroService is the session engine. It keeps no timers: every answer is
// derived from the stored instants and the clock reading at request time.
type PomodoroService struct {
	store repository.PomodoroStore
	clock clock.Clock
	newID func() string
}

func NewPomodoroService(store repository.PomodoroStore, clk clock.Clock) *PomodoroService {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &PomodoroService{store: store, clock: clk, newID: uuid.NewString}
}

type StartInput struct {
	NoteID string
	Target model.TargetRequest
}

type StartResult struct {
	SessionID string    `json:"sessionId"`
	ServerNow time.Time `json:"serverNow"`
	TargetAt  time.Time `json:"targetAt"`
	Seconds   int       `json:"seconds"`
}

type ResumeResult struct {
	TargetAt time.Time `json:"targetAt"`
}

type CompleteResult struct {
	Pomodoros int `json:"pomodoros"`
}

type ActiveSessionView struct {
	SessionID        string    `json:"sessionId"`
	NoteID           string    `json:"noteId"`
	TargetAt         time.Time `json:"targetAt"`
	IsPaused         bool      `json:"isPaused"`
	RemainingSeconds int       `json:"remainingSeconds"`
}

// startAttempts bounds the retry after losing a create race to a concurrent start.
const startAttempts = 2

// Start returns the caller's running session for the note, resuming it if it
// is paused, or opens a new one.
func (s *PomodoroService) Start(ctx context.Context, userID string, input StartInput) (*StartResult, *apperrors.APIError) {
	var result *StartResult
	var apiErr *apperrors.APIError

	for attempt := 0; attempt < startAttempts; attempt++ {
		now := timeutil.UTC(s.clock.Now())
		result, apiErr = nil, nil
		err := s.store.WithinTx(ctx, func(tx repository.PomodoroTx) error {
			note, err := tx.GetNote(ctx, input.NoteID)
			if errors.Is(err, repository.ErrNotFound) || (err == nil && note.UserID != userID) {
				apiErr = apperrors.Forbidden("note not found")
				return errAbort
			}
			if err != nil {
				return err
			}

			existing, err := tx.FindRunningSession(ctx, note.ID, userID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			if existing != nil {
				result, err = s.reuseRunning(ctx, tx, existing, note, now)
				return err
			}

			session := model.NewPomodoroSession(s.newID(), note.ID, userID, now, input.Target, note.SessionSeconds())
			if err := tx.InsertSession(ctx, session); err != nil {
				return err
			}
			result = &StartResult{
				SessionID: session.ID,
				ServerNow: now,
				TargetAt:  *session.TargetEndAt,
				Seconds:   timeutil.SecondsUntil(now, *session.TargetEndAt),
			}
			return nil
		})
		if apiErr != nil {
			return nil, apiErr
		}
		if errors.Is(err, repository.ErrConflict) {
			// Another request created or touched the running session first;
			// the next attempt picks it up.
			continue
		}
		if err != nil {
			log.Printf("start pomodoro: %v", err)
			return nil, apperrors.Internal("failed to start session")
		}
		return result, nil
	}

	return nil, apperrors.Conflict("session_conflict", "session changed concurrently, retry", nil)
}

// reuseRunning implements the start shortcut on an existing session: a paused
// session with time left is resumed, anything else is reported as-is.
func (s *PomodoroService) reuseRunning(
	ctx context.Context,
	tx repository.PomodoroTx,
	session *model.PomodoroSession,
	note *model.Note,
	now time.Time,
) (*StartResult, error) {
	if session.IsPaused() && session.RemainingSeconds != nil && *session.RemainingSeconds > 0 {
		if err := session.Resume(now); err != nil {
			return nil, err
		}
		if err := tx.UpdateSession(ctx, session); err != nil {
			return nil, err
		}
	}

	target := session.EffectiveTarget(note.SessionSeconds())
	seconds := timeutil.SecondsUntil(now, target)
	if session.IsPaused() {
		seconds = session.RemainingAt(now, note.SessionSeconds())
	}
	return &StartResult{
		SessionID: session.ID,
		ServerNow: now,
		TargetAt:  target,
		Seconds:   seconds,
	}, nil
}

// Pause freezes a running session at the client-computed remainder.
func (s *PomodoroService) Pause(ctx context.Context, userID, sessionID string, remainingSeconds *int) *apperrors.APIError {
	return s.transition(ctx, userID, sessionID, "pause session", func(_ repository.PomodoroTx, session *model.PomodoroSession, now time.Time) error {
		return session.Pause(now, remainingSeconds)
	})
}

// Resume restarts a paused session and returns its new target.
func (s *PomodoroService) Resume(ctx context.Context, userID, sessionID string) (*ResumeResult, *apperrors.APIError) {
	var result ResumeResult
	apiErr := s.transition(ctx, userID, sessionID, "resume session", func(_ repository.PomodoroTx, session *model.PomodoroSession, now time.Time) error {
		if err := session.Resume(now); err != nil {
			return err
		}
		result.TargetAt = *session.TargetEndAt
		return nil
	})
	if apiErr != nil {
		return nil, apiErr
	}
	return &result, nil
}

// Complete closes an elapsed session and bumps the note's counter in the
// same transaction.
func (s *PomodoroService) Complete(ctx context.Context, userID, sessionID string) (*CompleteResult, *apperrors.APIError) {
	var result CompleteResult
	apiErr := s.transition(ctx, userID, sessionID, "complete session", func(tx repository.PomodoroTx, session *model.PomodoroSession, now time.Time) error {
		note, err := tx.GetNote(ctx, session.NoteID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if err := session.Complete(now, note.SessionSeconds()); err != nil {
			return err
		}
		count, err := tx.IncrementPomodoroCount(ctx, session.NoteID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		result.Pomodoros = count
		return nil
	})
	if apiErr != nil {
		return nil, apiErr
	}
	return &result, nil
}

// Cancel closes a running or paused session without touching the counter.
func (s *PomodoroService) Cancel(ctx context.Context, userID, sessionID string) *apperrors.APIError {
	return s.transition(ctx, userID, sessionID, "cancel session", func(_ repository.PomodoroTx, session *model.PomodoroSession, now time.Time) error {
		return session.Cancel(now)
	})
}

// ListActive projects every running session the user owns. It never writes.
func (s *PomodoroService) ListActive(ctx context.Context, userID string) ([]ActiveSessionView, *apperrors.APIError) {
	now := timeutil.UTC(s.clock.Now())
	sessions, err := s.store.ListRunningSessions(ctx, userID)
	if err != nil {
		log.Printf("list active sessions: %v", err)
		return nil, apperrors.Internal("failed to list active sessions")
	}

	noteSeconds := make(map[string]int)
	views := make([]ActiveSessionView, 0, len(sessions))
	for i := range sessions {
		session := &sessions[i]

		// Only legacy rows without a target need the note's duration.
		seconds := model.DefaultPomodoroSeconds
		if session.TargetEndAt == nil {
			cached, ok := noteSeconds[session.NoteID]
			if !ok {
				note, noteErr := s.store.GetNote(ctx, session.NoteID)
				if noteErr != nil && !errors.Is(noteErr, repository.ErrNotFound) {
					log.Printf("list active sessions: %v", noteErr)
					return nil, apperrors.Internal("failed to list active sessions")
				}
				cached = note.SessionSeconds()
				noteSeconds[session.NoteID] = cached
			}
			seconds = cached
		}

		views = append(views, ActiveSessionView{
			SessionID:        session.ID,
			NoteID:           session.NoteID,
			TargetAt:         session.EffectiveTarget(seconds),
			IsPaused:         session.IsPaused(),
			RemainingSeconds: session.RemainingAt(now, seconds),
		})
	}
	return views, nil
}

type transitionFunc func(tx repository.PomodoroTx, session *model.PomodoroSession, now time.Time) error

// errAbort unwinds a transaction after an *APIError has already been chosen.
var errAbort = errors.New("abort transaction")

// transition loads a session the caller owns, applies fn and writes it back
// with a version check, all in one transaction.
func (s *PomodoroService) transition(ctx context.Context, userID, sessionID, op string, fn transitionFunc) *apperrors.APIError {
	now := timeutil.UTC(s.clock.Now())
	var apiErr *apperrors.APIError

	err := s.store.WithinTx(ctx, func(tx repository.PomodoroTx) error {
		session, err := tx.GetSession(ctx, sessionID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && session.UserID != userID) {
			apiErr = apperrors.Forbidden("session not found")
			return errAbort
		}
		if err != nil {
			return err
		}

		if err := fn(tx, session, now); err != nil {
			if mapped := transitionError(err); mapped != nil {
				apiErr = mapped
				return errAbort
			}
			return err
		}
		return tx.UpdateSession(ctx, session)
	})

	if apiErr != nil {
		return apiErr
	}
	if errors.Is(err, repository.ErrConflict) {
		return apperrors.Conflict("session_conflict", "session was modified by another request", nil)
	}
	if err != nil {
		log.Printf("%s: %v", op, err)
		return apperrors.Internal("failed to " + op)
	}
	return nil
}

// transitionError maps domain rejections onto API errors; nil means err is
// not a domain rejection.
func transitionError(err error) *apperrors.APIError {
	var notElapsed *model.NotElapsedError
	switch {
	case errors.As(err, &notElapsed):
		return apperrors.BadRequest("not_elapsed", "session has not elapsed yet").
			WithDetails(map[string]int{"remaining": notElapsed.Remaining})
	case errors.Is(err, model.ErrInvalidRemaining):
		return apperrors.BadRequest("invalid_remaining", err.Error())
	case errors.Is(err, model.ErrNotPaused):
		return apperrors.BadRequest("not_paused", err.Error())
	case errors.Is(err, model.ErrInvalidTransition):
		return apperrors.InvalidState(err.Error())
	}
	return nil
}
