// Package notify renders reminder payloads into transport-safe messages and
// hands them to a message transport.
package notify

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/samuelstranges/chronos-sync/internal/models"
)

// MaxMessageLength is the SMS-class budget for a formatted reminder.
const MaxMessageLength = 160

// SanitizeSummary prepares an event summary for SMS delivery: whitespace
// runs (including newlines and tabs) collapse to single spaces, control
// characters are stripped, and non-ASCII printables such as emoji survive.
// A summary that sanitizes to nothing becomes the default title.
func SanitizeSummary(summary string) string {
	collapsed := strings.Join(strings.Fields(summary), " ")

	var b strings.Builder
	b.Grow(len(collapsed))
	for _, r := range collapsed {
		if unicode.IsPrint(r) || r > unicode.MaxASCII {
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return models.DefaultTitle
	}
	return cleaned
}

// FormatMessage renders the summary plus a lead-time suffix, truncating the
// summary with an ellipsis when the result would exceed the message budget.
// Pure function, counted in runes.
func FormatMessage(summary string, leadMinutes int) string {
	title := SanitizeSummary(summary)
	suffix := fmt.Sprintf(" (%dmin)", leadMinutes)

	titleRunes := []rune(title)
	if len(titleRunes)+len(suffix) > MaxMessageLength {
		maxTitle := MaxMessageLength - len(suffix) - 3
		title = string(titleRunes[:maxTitle]) + "..."
	}

	return title + suffix
}
