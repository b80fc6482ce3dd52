package core

import (
	"strings"
	"time"
)

// Flag is the severity/category tag of a log record.
type Flag string

const (
	FlagDebug   Flag = "debug"
	FlagInfo    Flag = "info"
	FlagWarning Flag = "warning"
	FlagError   Flag = "error"
	FlagSuccess Flag = "success"
)

// LogRecord is a single captured log entry as handed to the viewer.
// Consumers treat it as read-only and pass it by value.
type LogRecord struct {
	Content       string    `json:"content"`
	File          string    `json:"file"`
	Function      string    `json:"function"`
	Line          int       `json:"line"`
	Flag          string    `json:"flag"`
	Module        string    `json:"module"`
	FormattedTime string    `json:"formatTime"`
	Time          time.Time `json:"-"` // zero when the source has no machine timestamp
}

// FormatTime renders t the way records without a preformatted time are shown.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05.000")
}

// ParseFlag normalizes a level string from an arbitrary log source.
// Unrecognized values are kept verbatim so nothing is lost in display.
func ParseFlag(s string) Flag {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace", "verbose":
		return FlagDebug
	case "info", "notice", "information":
		return FlagInfo
	case "warn", "warning":
		return FlagWarning
	case "error", "err", "fatal", "critical", "crit", "panic":
		return FlagError
	case "success", "ok":
		return FlagSuccess
	default:
		return Flag(s)
	}
}
