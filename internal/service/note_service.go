package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"notepomo/internal/clock"
	apperrors "notepomo/internal/errors"
	"notepomo/internal/model"
	"notepomo/internal/repository"
)

// NoteService is the task CRUD the session engine relies on for ownership
// checks and per-note durations.
type NoteService struct {
	repo  *repository.NoteRepository
	clock clock.Clock
}

func NewNoteService(repo *repository.NoteRepository, clk clock.Clock) *NoteService {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &NoteService{repo: repo, clock: clk}
}

// CreateNoteInput has already been coerced by the handler; invalid optional
// fields arrive as nil.
type CreateNoteInput struct {
	Data            string
	PomodoroMinutes *int
	FinishBy        *time.Time
}

type UpdateNoteInput struct {
	Data            *string
	PomodoroSeconds *int
}

type DeleteNoteResult struct {
	CanceledSessions int `json:"canceledSessions"`
}

func (s *NoteService) Create(ctx context.Context, userID string, input CreateNoteInput) (*model.Note, *apperrors.APIError) {
	data := strings.TrimSpace(input.Data)
	if data == "" {
		return nil, apperrors.BadRequest("invalid_note", "note is too short")
	}

	now := s.clock.Now().UTC()
	note := model.Note{
		ID:                      uuid.NewString(),
		UserID:                  userID,
		Data:                    data,
		Status:                  model.NoteStatusPlanned,
		PomodoroDurationSeconds: model.DefaultPomodoroSeconds,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	// A finish-by deadline takes over from a per-note duration.
	if input.FinishBy != nil {
		finishBy := input.FinishBy.UTC()
		note.FinishBy = &finishBy
	} else if m := input.PomodoroMinutes; m != nil && *m > 0 && *m <= model.MaxNotePomodoroMinutes {
		note.PomodoroDurationSeconds = *m * 60
	}

	if err := s.repo.Create(ctx, &note); err != nil {
		log.Printf("create note: %v", err)
		return nil, apperrors.Internal("failed to create note")
	}
	return &note, nil
}

func (s *NoteService) List(ctx context.Context, userID string, filter repository.NoteFilter) ([]model.Note, *apperrors.APIError) {
	if !model.IsValidNoteStatus(filter.Status) {
		filter.Status = ""
	}
	notes, err := s.repo.ListByUser(ctx, userID, filter)
	if err != nil {
		log.Printf("list notes: %v", err)
		return nil, apperrors.Internal("failed to list notes")
	}
	return notes, nil
}

func (s *NoteService) Update(ctx context.Context, userID, noteID string, input UpdateNoteInput) (*model.Note, *apperrors.APIError) {
	note, apiErr := s.ownedNote(ctx, userID, noteID)
	if apiErr != nil {
		return nil, apiErr
	}

	updated := false
	if input.Data != nil {
		if data := strings.TrimSpace(*input.Data); data != "" {
			note.Data = data
			updated = true
		}
	}
	if p := input.PomodoroSeconds; p != nil && *p > 0 && *p <= model.MaxNotePomodoroSeconds {
		note.PomodoroDurationSeconds = *p
		updated = true
	}
	if !updated {
		return nil, apperrors.BadRequest("invalid_payload", "nothing to update")
	}

	return s.save(ctx, note)
}

func (s *NoteService) UpdateStatus(ctx context.Context, userID, noteID, status string) (*model.Note, *apperrors.APIError) {
	if !model.IsValidNoteStatus(status) {
		return nil, apperrors.BadRequest("invalid_status", "status must be one of planned, in_progress, completed, canceled")
	}
	note, apiErr := s.ownedNote(ctx, userID, noteID)
	if apiErr != nil {
		return nil, apiErr
	}
	note.Status = status
	return s.save(ctx, note)
}

func (s *NoteService) Delete(ctx context.Context, userID, noteID string) (*DeleteNoteResult, *apperrors.APIError) {
	if _, apiErr := s.ownedNote(ctx, userID, noteID); apiErr != nil {
		return nil, apiErr
	}
	canceled, err := s.repo.SoftDelete(ctx, noteID, s.clock.Now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Forbidden("note not found")
	}
	if err != nil {
		log.Printf("delete note: %v", err)
		return nil, apperrors.Internal("failed to delete note")
	}
	return &DeleteNoteResult{CanceledSessions: canceled}, nil
}

func (s *NoteService) ownedNote(ctx context.Context, userID, noteID string) (*model.Note, *apperrors.APIError) {
	note, err := s.repo.GetByID(ctx, noteID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && note.UserID != userID) {
		return nil, apperrors.Forbidden("note not found")
	}
	if err != nil {
		log.Printf("get note: %v", err)
		return nil, apperrors.Internal("failed to get note")
	}
	return note, nil
}

func (s *NoteService) save(ctx context.Context, note *model.Note) (*model.Note, *apperrors.APIError) {
	note.UpdatedAt = s.clock.Now().UTC()
	err := s.repo.Update(ctx, note)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Forbidden("note not found")
	}
	if err != nil {
		log.Printf("update note: %v", err)
		return nil, apperrors.Internal("failed to update note")
	}
	return note, nil
}
