package core

import (
	"testing"
	"time"
)

func TestParseFlag(t *testing.T) {
	tests := []struct {
		input string
		want  Flag
	}{
		{"debug", FlagDebug},
		{"TRACE", FlagDebug},
		{"info", FlagInfo},
		{" Notice ", FlagInfo},
		{"warn", FlagWarning},
		{"WARNING", FlagWarning},
		{"error", FlagError},
		{"fatal", FlagError},
		{"crit", FlagError},
		{"success", FlagSuccess},
		{"network", Flag("network")},
		{"", Flag("")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFlag(tt.input); got != tt.want {
				t.Errorf("ParseFlag(%q): got %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatTimeZero(t *testing.T) {
	if got := FormatTime(time.Time{}); got != "" {
		t.Errorf("expected empty string for zero time, got %q", got)
	}
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 123_000_000, time.Local)
	if got := FormatTime(ts); got != "2024-03-09 14:05:07.123" {
		t.Errorf("got %q, want 2024-03-09 14:05:07.123", got)
	}
}
