package repository

import (
	"database/sql"
	"time"

	"notepomo/internal/timeutil"
)

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return timeutil.Parse(raw)
}

func parseNullTime(raw sql.NullString) (*time.Time, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	t, err := timeutil.Parse(raw.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTime(t time.Time) string {
	return timeutil.Format(t)
}

func formatNullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return timeutil.Format(*t)
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
