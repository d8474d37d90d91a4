package core

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	promptDateLayout = "Jan 02 2006"
	clockLayout      = "Monday January 02 2006 at 15:04:05 UTC"
)

// ClockLine formats an instant for CURRENT DATE/TIME prompt headers, so
// the model can resolve relative time references.
func ClockLine(t time.Time) string {
	return t.UTC().Format(clockLayout)
}

// PromptLine renders one memory for language-model consumption:
//
//	[id:mem-1] I live in Barcelona [noted at Aug 12 2025]
//
// The date suffix is omitted when no timestamp is known.
func PromptLine(r SimilarityResult) string {
	line := fmt.Sprintf("[id:%s] %s", r.ID, r.Content)
	noted := r.UpdatedAt
	if noted.IsZero() {
		noted = r.CreatedAt
	}
	if !noted.IsZero() {
		line += fmt.Sprintf(" [noted at %s]", noted.Format(promptDateLayout))
	}
	return line
}

// PromptLines renders a candidate set, one memory per line.
func PromptLines(results []SimilarityResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, PromptLine(r))
	}
	return strings.Join(lines, "\n")
}

// Truncate shortens text to maxLen characters for logging and status
// previews, cutting on a rune boundary so the result stays valid UTF-8.
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
