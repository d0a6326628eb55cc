package models

import (
	"fmt"
	"strings"
)

// DefaultTitle is substituted for events whose SUMMARY is missing or blank.
const DefaultTitle = "Untitled Event"

// NotificationTypeReminder tags reminder payloads fired by the trigger
// service.
const NotificationTypeReminder = "calendar_reminder"

// maxTriggerNameLen is the scheduling service's limit on schedule names.
const maxTriggerNameLen = 64

// Occurrence is one concrete instance of a calendar event after recurrence
// expansion. Whole-day events never become occurrences; an Occurrence always
// has a time-of-day.
type Occurrence struct {
	Title       string
	Start       Instant
	Location    string
	Description string
	// UID comes straight from the calendar document. It may be empty and is
	// not guaranteed unique across documents in a batch.
	UID string
}

// TriggerRequest is a one-shot future firing instruction for the scheduling
// service. Expression is always zone-free; the zone travels in Timezone.
type TriggerRequest struct {
	Name       string
	Group      string
	Expression string
	Timezone   string
	Payload    string

	// Summary is carried for diagnostics only and never crosses the wire.
	Summary string
}

// ReminderPayload is the data a fired trigger delivers to the notifier.
type ReminderPayload struct {
	EventSummary     string `json:"event_summary"`
	EventLocation    string `json:"event_location"`
	EventTime        string `json:"event_time"`
	NotificationType string `json:"notification_type"`
}

// TriggerName derives the schedule name for an occurrence. It is a pure
// function of the UID and the start epoch so that re-planning an unchanged
// calendar produces identical trigger identities. The UID is mapped onto the
// scheduler's name charset and the result capped at the name length limit
// with the epoch suffix kept intact.
func TriggerName(uid string, start Instant) string {
	suffix := fmt.Sprintf("-%d", start.Unix())
	name := "event-" + sanitizeNamePart(uid)
	if len(name)+len(suffix) > maxTriggerNameLen {
		name = name[:maxTriggerNameLen-len(suffix)]
	}
	return name + suffix
}

// sanitizeNamePart replaces characters outside [A-Za-z0-9._-] with '-'.
func sanitizeNamePart(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
