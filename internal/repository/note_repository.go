package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"notepomo/internal/db"
	"notepomo/internal/model"
)

type NoteRepository struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewNoteRepository(database *sql.DB, dialect db.Dialect) *NoteRepository {
	return &NoteRepository{db: database, dialect: dialect}
}

// NoteFilter narrows ListByUser. Zero values mean "no constraint"; To is exclusive.
type NoteFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
}

const noteColumns = `id, user_id, data, status, pomodoro_count, pomodoro_duration_seconds,
		        finish_by, created_at, updated_at, deleted_at`

func (r *NoteRepository) Create(ctx context.Context, note *model.Note) error {
	_, err := r.db.ExecContext(
		ctx,
		r.dialect.Rebind(`INSERT INTO notes (
			id, user_id, data, status, pomodoro_count, pomodoro_duration_seconds,
			finish_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		note.ID,
		note.UserID,
		note.Data,
		note.Status,
		note.PomodoroCount,
		note.PomodoroDurationSeconds,
		formatNullTime(note.FinishBy),
		formatTime(note.CreatedAt),
		formatTime(note.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

func (r *NoteRepository) GetByID(ctx context.Context, noteID string) (*model.Note, error) {
	return getNote(ctx, r.db, r.dialect, noteID)
}

func (r *NoteRepository) ListByUser(ctx context.Context, userID string, filter NoteFilter) ([]model.Note, error) {
	var query strings.Builder
	query.WriteString(`SELECT ` + noteColumns + ` FROM notes WHERE user_id = ? AND deleted_at IS NULL`)
	args := []interface{}{userID}

	if filter.Status != "" {
		query.WriteString(` AND status = ?`)
		args = append(args, filter.Status)
	}
	if filter.From != nil {
		query.WriteString(` AND created_at >= ?`)
		args = append(args, formatTime(*filter.From))
	}
	if filter.To != nil {
		query.WriteString(` AND created_at < ?`)
		args = append(args, formatTime(*filter.To))
	}
	query.WriteString(` ORDER BY created_at DESC`)

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]model.Note, 0)
	for rows.Next() {
		note, scanErr := scanNote(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func (r *NoteRepository) Update(ctx context.Context, note *model.Note) error {
	result, err := r.db.ExecContext(
		ctx,
		r.dialect.Rebind(`UPDATE notes
		 SET data = ?,
		     status = ?,
		     pomodoro_duration_seconds = ?,
		     finish_by = ?,
		     updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`),
		note.Data,
		note.Status,
		note.PomodoroDurationSeconds,
		formatNullTime(note.FinishBy),
		formatTime(note.UpdatedAt),
		note.ID,
	)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update note rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete hides the note and cancels its running sessions in one
// transaction. Session rows are kept.
func (r *NoteRepository) SoftDelete(ctx context.Context, noteID string, now time.Time) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stamp := formatTime(now)
	result, err := tx.ExecContext(
		ctx,
		r.dialect.Rebind(`UPDATE notes SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`),
		stamp,
		stamp,
		noteID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete note rows affected: %w", err)
	}
	if affected == 0 {
		return 0, ErrNotFound
	}

	canceled, err := tx.ExecContext(
		ctx,
		r.dialect.Rebind(`UPDATE pomodoro_sessions
		 SET status = ?,
		     is_paused = 0,
		     ended_at = ?,
		     remaining_seconds = NULL,
		     paused_at = NULL,
		     version = version + 1,
		     updated_at = ?
		 WHERE note_id = ? AND status = ?`),
		model.StatusCanceled,
		stamp,
		stamp,
		noteID,
		model.StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("cancel note sessions: %w", err)
	}
	canceledCount, err := canceled.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cancel note sessions rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return int(canceledCount), nil
}

func getNote(ctx context.Context, q queryer, dialect db.Dialect, noteID string) (*model.Note, error) {
	row := q.QueryRowContext(
		ctx,
		dialect.Rebind(`SELECT `+noteColumns+` FROM notes WHERE id = ? AND deleted_at IS NULL`),
		noteID,
	)
	return scanNote(row)
}

func scanNote(s scanner) (*model.Note, error) {
	note := model.Note{}
	var finishBy sql.NullString
	var createdAt string
	var updatedAt string
	var deletedAt sql.NullString
	err := s.Scan(
		&note.ID,
		&note.UserID,
		&note.Data,
		&note.Status,
		&note.PomodoroCount,
		&note.PomodoroDurationSeconds,
		&finishBy,
		&createdAt,
		&updatedAt,
		&deletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan note: %w", err)
	}

	if note.FinishBy, err = parseNullTime(finishBy); err != nil {
		return nil, fmt.Errorf("parse note finish_by: %w", err)
	}
	if note.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse note created_at: %w", err)
	}
	if note.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse note updated_at: %w", err)
	}
	if note.DeletedAt, err = parseNullTime(deletedAt); err != nil {
		return nil, fmt.Errorf("parse note deleted_at: %w", err)
	}
	return &note, nil
}
