package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the canonical calendar date format.
const DateLayout = "2006-01-02"

// Date is a calendar date with no time-of-day. The embedded time is always
// midnight UTC so that dates compare and sort by day.
type Date struct {
	time.Time
}

// NewDate returns the given calendar date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Today returns the local calendar date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD date. Timestamps such as
// "2024-01-05T10:00:00Z" or "2024-01-05 10:00" are cut to their date part.
func ParseDate(s string) (Date, error) {
	day := s
	if len(s) > len(DateLayout) {
		if c := s[len(DateLayout)]; c != 'T' && c != ' ' {
			return Date{}, fmt.Errorf("invalid date %q", s)
		}
		day = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, day)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// InMonth reports whether d falls within the given calendar month.
func (d Date) InMonth(year int, month time.Month) bool {
	return d.Year() == year && d.Month() == month
}

// Compare returns -1, 0 or +1 ordering d against o.
func (d Date) Compare(o Date) int {
	return d.Time.Compare(o.Time)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
