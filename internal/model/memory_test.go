package model

import "testing"

func TestDayBucket(t *testing.T) {
	tests := map[string]string{
		"2024-01-01T10:00:00Z":      "2024-01-01",
		"2024-01-01T23:59:00+03:00": "2024-01-01",
		"2024-01-01":                "2024-01-01",
		"2024":                      "2024",
		"":                          "",
	}
	for in, want := range tests {
		if got := DayBucket(in); got != want {
			t.Errorf("DayBucket(%q) = %q, want %q", in, got, want)
		}
	}
}
