package handler

import (
	"bytes"
	"encoding/json"
	"time"

	"notepomo/internal/timeutil"
)

// Optional client fields are decoded leniently: anything that is not the
// expected JSON shape is treated as absent rather than failing the request.

// optionalInt accepts a JSON integer literal only. Strings, fractions, and
// booleans yield nil.
func optionalInt(raw json.RawMessage) *int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return nil
	}
	v, err := n.Int64()
	if err != nil {
		return nil
	}
	out := int(v)
	return &out
}

func optionalString(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

// optionalInstant parses a JSON string timestamp; values without an offset
// are taken as UTC.
func optionalInstant(raw json.RawMessage) *time.Time {
	s := optionalString(raw)
	if s == nil {
		return nil
	}
	return timeutil.ParseOptional(*s)
}
