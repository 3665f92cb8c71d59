// Package display provides shared formatting utilities for journal files
// and terminal output.
package display

import (
	"strings"
	"time"
)

// Clock formats a timestamp as it appears in entry headers: 3:04 PM.
func Clock(t time.Time) string {
	return t.Format("3:04 PM")
}

// LongDate formats a day for daily-file headers: January 2, 2006.
func LongDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

// Day formats a day as used in file names: 2006-01-02.
func Day(t time.Time) string {
	return t.Format("2006-01-02")
}

// SpeakerLabel renders a chat role for display: "user" becomes "User".
func SpeakerLabel(role string) string {
	if role == "" {
		return ""
	}
	return strings.ToUpper(role[:1]) + role[1:]
}

// TruncateText truncates text to maxLen runes, replacing newlines with
// spaces. If truncated, adds "..." suffix.
func TruncateText(s string, maxLen int) string {
	text := strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
