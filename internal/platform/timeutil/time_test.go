package timeutil

import (
	"errors"
	"testing"
	"time"
)

func TestParseDateLayout(t *testing.T) {
	got, err := ParseDate("1990-05-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(1990, time.May, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseDateRFC3339(t *testing.T) {
	got, err := ParseDate("2000-01-15T23:30:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if FormatDate(got) != "2000-01-15" {
		t.Fatalf("expected 2000-01-15, got %s", FormatDate(got))
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Fatalf("expected midnight, got %v", got)
	}
}

func TestParseDateOffsetNormalizedToUTC(t *testing.T) {
	got, err := ParseDate("2000-01-15T01:00:00+03:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if FormatDate(got) != "2000-01-14" {
		t.Fatalf("expected 2000-01-14, got %s", FormatDate(got))
	}
}

func TestParseDateRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "not-a-date", "2023-02-30", "2023-13-01", "01/05/1990"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q): expected ErrInvalidDate, got %v", in, err)
		}
	}
}

func TestRFC3339MicrosConstant(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 0, 123456000, time.UTC)
	if got := ts.Format(RFC3339Micros); got != "2024-01-15T10:30:00.123456Z" {
		t.Fatalf("unexpected format: %s", got)
	}
}
