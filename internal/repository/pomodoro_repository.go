package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"notepomo/internal/db"
	"notepomo/internal/model"
)

type PomodoroRepository struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewPomodoroRepository(database *sql.DB, dialect db.Dialect) *PomodoroRepository {
	return &PomodoroRepository{db: database, dialect: dialect}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const sessionColumns = `id, note_id, user_id, status, is_paused, started_at, ended_at,
		        target_end_at, remaining_seconds, paused_at, version, created_at, updated_at`

func (r *PomodoroRepository) WithinTx(ctx context.Context, fn func(tx PomodoroTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&pomodoroTx{q: tx, dialect: r.dialect}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *PomodoroRepository) GetNote(ctx context.Context, noteID string) (*model.Note, error) {
	return getNote(ctx, r.db, r.dialect, noteID)
}

func (r *PomodoroRepository) ListRunningSessions(ctx context.Context, userID string) ([]model.PomodoroSession, error) {
	rows, err := r.db.QueryContext(
		ctx,
		r.dialect.Rebind(`SELECT `+sessionColumns+`
		 FROM pomodoro_sessions
		 WHERE user_id = ? AND status = ?
		 ORDER BY started_at ASC, created_at ASC, id ASC`),
		userID,
		model.StatusRunning,
	)
	if err != nil {
		return nil, fmt.Errorf("list running sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.PomodoroSession, 0)
	for rows.Next() {
		session, scanErr := scanPomodoroSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

type pomodoroTx struct {
	q       queryer
	dialect db.Dialect
}

func (t *pomodoroTx) GetNote(ctx context.Context, noteID string) (*model.Note, error) {
	return getNote(ctx, t.q, t.dialect, noteID)
}

func (t *pomodoroTx) GetSession(ctx context.Context, sessionID string) (*model.PomodoroSession, error) {
	row := t.q.QueryRowContext(
		ctx,
		t.dialect.Rebind(`SELECT `+sessionColumns+`
		 FROM pomodoro_sessions
		 WHERE id = ?`),
		sessionID,
	)
	return scanPomodoroSession(row)
}

func (t *pomodoroTx) FindRunningSession(ctx context.Context, noteID, userID string) (*model.PomodoroSession, error) {
	row := t.q.QueryRowContext(
		ctx,
		t.dialect.Rebind(`SELECT `+sessionColumns+`
		 FROM pomodoro_sessions
		 WHERE note_id = ? AND user_id = ? AND status = ?
		 ORDER BY started_at ASC
		 LIMIT 1`),
		noteID,
		userID,
		model.StatusRunning,
	)
	return scanPomodoroSession(row)
}

func (t *pomodoroTx) InsertSession(ctx context.Context, session *model.PomodoroSession) error {
	_, err := t.q.ExecContext(
		ctx,
		t.dialect.Rebind(`INSERT INTO pomodoro_sessions (
			id, note_id, user_id, status, is_paused, started_at, ended_at,
			target_end_at, remaining_seconds, paused_at, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		session.ID,
		session.NoteID,
		session.UserID,
		session.State.Status(),
		boolToInt(session.IsPaused()),
		formatTime(session.StartedAt),
		formatNullTime(session.EndedAt),
		formatNullTime(session.TargetEndAt),
		nullInt(session.RemainingSeconds),
		formatNullTime(session.PausedAt),
		session.Version,
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (t *pomodoroTx) UpdateSession(ctx context.Context, session *model.PomodoroSession) error {
	result, err := t.q.ExecContext(
		ctx,
		t.dialect.Rebind(`UPDATE pomodoro_sessions
		 SET status = ?,
		     is_paused = ?,
		     started_at = ?,
		     ended_at = ?,
		     target_end_at = ?,
		     remaining_seconds = ?,
		     paused_at = ?,
		     version = ?,
		     updated_at = ?
		 WHERE id = ? AND version = ?`),
		session.State.Status(),
		boolToInt(session.IsPaused()),
		formatTime(session.StartedAt),
		formatNullTime(session.EndedAt),
		formatNullTime(session.TargetEndAt),
		nullInt(session.RemainingSeconds),
		formatNullTime(session.PausedAt),
		session.Version+1,
		formatTime(session.UpdatedAt),
		session.ID,
		session.Version,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session rows affected: %w", err)
	}
	if affected == 0 {
		return ErrConflict
	}
	session.Version++
	return nil
}

func (t *pomodoroTx) IncrementPomodoroCount(ctx context.Context, noteID string) (int, error) {
	if _, err := t.q.ExecContext(
		ctx,
		t.dialect.Rebind(`UPDATE notes SET pomodoro_count = pomodoro_count + 1 WHERE id = ?`),
		noteID,
	); err != nil {
		return 0, fmt.Errorf("increment pomodoro count: %w", err)
	}

	var count int
	err := t.q.QueryRowContext(
		ctx,
		t.dialect.Rebind(`SELECT pomodoro_count FROM notes WHERE id = ?`),
		noteID,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read pomodoro count: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPomodoroSession(s scanner) (*model.PomodoroSession, error) {
	session := model.PomodoroSession{}
	var status string
	var isPaused bool
	var startedAt string
	var endedAt sql.NullString
	var targetEndAt sql.NullString
	var remaining sql.NullInt64
	var pausedAt sql.NullString
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&session.ID,
		&session.NoteID,
		&session.UserID,
		&status,
		&isPaused,
		&startedAt,
		&endedAt,
		&targetEndAt,
		&remaining,
		&pausedAt,
		&session.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	session.State, err = model.StateFromStorage(status, isPaused)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", session.ID, err)
	}
	if session.IsPaused() && !remaining.Valid {
		// Legacy rows could be paused without a remainder; treat as nothing left.
		remaining = sql.NullInt64{Int64: 0, Valid: true}
	}
	if remaining.Valid {
		value := int(remaining.Int64)
		session.RemainingSeconds = &value
	}

	if session.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse session started_at: %w", err)
	}
	if session.EndedAt, err = parseNullTime(endedAt); err != nil {
		return nil, fmt.Errorf("parse session ended_at: %w", err)
	}
	if session.TargetEndAt, err = parseNullTime(targetEndAt); err != nil {
		return nil, fmt.Errorf("parse session target_end_at: %w", err)
	}
	if session.PausedAt, err = parseNullTime(pausedAt); err != nil {
		return nil, fmt.Errorf("parse session paused_at: %w", err)
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse session updated_at: %w", err)
	}

	return &session, nil
}
