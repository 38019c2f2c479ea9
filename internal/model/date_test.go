package model

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	want := NewDate(2024, time.January, 5)
	for _, in := range []string{"2024-01-05", "2024-01-05T10:30:00Z", "2024-01-05 10:30"} {
		got, err := ParseDate(in)
		if err != nil {
			t.Fatalf("ParseDate(%q) error: %v", in, err)
		}
		if !got.Equal(want.Time) {
			t.Errorf("ParseDate(%q) = %s, want %s", in, got, want)
		}
	}

	for _, in := range []string{"", "2024-01-5", "2024-02-30", "2024-01-05garbage", "2024-01-051"} {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("ParseDate(%q) accepted, want error", in)
		}
	}
}
