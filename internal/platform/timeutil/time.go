package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RFC3339Micros is RFC 3339 UTC with fixed microsecond precision.
// Use this format for log timestamps where higher precision is needed.
const RFC3339Micros = "2006-01-02T15:04:05.000000Z"

// DateLayout is the calendar date layout submitted by HTML date inputs.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned when a value cannot be read as a calendar date.
var ErrInvalidDate = errors.New("invalid calendar date")

// ParseDate reads a calendar date from either DateLayout or a full RFC 3339
// timestamp. The result is midnight UTC of the date the input names.
// Empty input and out-of-range values such as "2023-02-30" are rejected.
func ParseDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, fmt.Errorf("empty date: %w", ErrInvalidDate)
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, ErrInvalidDate)
	}
	return TruncateToDate(t), nil
}

// TruncateToDate drops the clock component, keeping the UTC calendar date.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders the UTC calendar date of t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
