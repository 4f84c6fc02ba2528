// Package timeutil converts stored and client-supplied timestamps into
// absolute UTC instants. Values that carry no offset are assumed to be UTC;
// that includes browser datetime-local strings, which is a known limitation.
package timeutil

import (
	"errors"
	"strings"
	"time"
)

var ErrEmpty = errors.New("empty timestamp")

// Layouts with an explicit offset come first so they win over naive forms.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05-07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// UTC returns t as a UTC instant. A zero time stays zero.
func UTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// UTCPtr is UTC for optional timestamps.
func UTCPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := UTC(*t)
	return &v
}

// Parse reads an ISO-8601-ish timestamp. A trailing "Z" or numeric offset is
// honoured; anything without one is taken as UTC wall time.
func Parse(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrEmpty
	}

	var firstErr error
	for _, layout := range instantLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	for _, layout := range naiveLayouts {
		t, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, firstErr
}

// ParseOptional is Parse for best-effort client fields: failures are reported
// as "absent" instead of as an error.
func ParseOptional(raw string) *time.Time {
	t, err := Parse(raw)
	if err != nil {
		return nil
	}
	return &t
}

// storageLayout is RFC3339 with a fixed-width fraction so stored values sort
// lexically in time order.
const storageLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Format renders t as a sortable UTC string for storage.
func Format(t time.Time) string {
	return t.UTC().Format(storageLayout)
}

// SecondsUntil is the whole number of seconds from now to target, truncated
// toward zero. Negative once target has passed.
func SecondsUntil(now, target time.Time) int {
	return int(target.Sub(now) / time.Second)
}
