// Package ical turns raw calendar documents into concrete event occurrences
// within a lookahead window, expanding recurrence rules and classifying each
// start time as zoned or floating.
package ical

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/samuelstranges/chronos-sync/internal/models"
)

const (
	dateTimeLayout    = "20060102T150405"
	dateTimeUTCLayout = "20060102T150405Z"
	dateLayout        = "20060102"
)

// ParseError reports a malformed calendar document.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse calendar document: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// parsedEvent is the normalized form of a VEVENT before recurrence
// expansion.
type parsedEvent struct {
	uid         string
	summary     string
	location    string
	description string
	start       models.Instant
	allDay      bool
	rawRRule    string
	exDates     []time.Time
}

// parseDocument parses a single ICS payload into normalized events.
// Individual events that cannot be converted are logged and skipped; only a
// document-level parse failure is an error.
func parseDocument(data []byte, logger *slog.Logger) ([]parsedEvent, error) {
	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	var events []parsedEvent
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve, logger)
		if err != nil {
			logger.Warn("Failed to convert calendar event", "error", err, "uid", ve.Id())
			continue
		}
		events = append(events, ev)
	}

	return events, nil
}

func parseVEvent(ve *ics.VEvent, logger *slog.Logger) (parsedEvent, error) {
	var out parsedEvent

	if p := ve.GetProperty(ics.ComponentPropertyUniqueId); p != nil {
		out.uid = p.Value
	}
	if p := ve.GetProperty(ics.ComponentPropertySummary); p != nil {
		out.summary = p.Value
	}
	if p := ve.GetProperty(ics.ComponentPropertyLocation); p != nil {
		out.location = p.Value
	}
	if p := ve.GetProperty(ics.ComponentPropertyDescription); p != nil {
		out.description = p.Value
	}

	dtStart := ve.GetProperty(ics.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return out, fmt.Errorf("event missing DTSTART")
	}

	start, allDay, err := classifyStart(dtStart, logger)
	if err != nil {
		return out, err
	}
	out.start = start
	out.allDay = allDay

	if p := ve.GetProperty(ics.ComponentPropertyRrule); p != nil {
		out.rawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ics.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			t, err := parseTimeValue(part, out.start.Wall().Location())
			if err != nil {
				logger.Warn("Failed to parse EXDATE, ignoring", "value", part, "error", err, "uid", out.uid)
				continue
			}
			out.exDates = append(out.exDates, t)
		}
	}

	return out, nil
}

// classifyStart inspects DTSTART at the property level to decide between the
// three calendar time shapes: date-only (whole-day), zoned (TZID parameter or
// trailing Z), and floating (bare local time).
func classifyStart(prop *ics.IANAProperty, logger *slog.Logger) (models.Instant, bool, error) {
	val := prop.Value

	if isDateOnly(prop) {
		// Whole-day events carry no time-of-day; the caller excludes them.
		t, err := time.Parse(dateLayout, val)
		if err != nil {
			return models.Instant{}, false, fmt.Errorf("invalid DTSTART date %q: %w", val, err)
		}
		return models.Floating(t), true, nil
	}

	if tzids, ok := prop.ICalParameters["TZID"]; ok && len(tzids) > 0 && tzids[0] != "" {
		tzid := tzids[0]
		loc, err := time.LoadLocation(tzid)
		if err != nil {
			// Unknown zone names degrade to floating so one exotic TZID does
			// not sink the whole document; the fallback zone applies instead.
			logger.Warn("Unknown TZID on event, treating start time as floating", "tzid", tzid)
			t, perr := time.Parse(dateTimeLayout, val)
			if perr != nil {
				return models.Instant{}, false, fmt.Errorf("invalid DTSTART %q: %w", val, perr)
			}
			return models.Floating(t), false, nil
		}
		t, err := time.ParseInLocation(dateTimeLayout, val, loc)
		if err != nil {
			return models.Instant{}, false, fmt.Errorf("invalid DTSTART %q: %w", val, err)
		}
		return models.Zoned(t, tzid), false, nil
	}

	if strings.HasSuffix(val, "Z") {
		t, err := time.Parse(dateTimeUTCLayout, val)
		if err != nil {
			return models.Instant{}, false, fmt.Errorf("invalid DTSTART %q: %w", val, err)
		}
		return models.Zoned(t.UTC(), "UTC"), false, nil
	}

	t, err := time.Parse(dateTimeLayout, val)
	if err != nil {
		return models.Instant{}, false, fmt.Errorf("invalid DTSTART %q: %w", val, err)
	}
	return models.Floating(t), false, nil
}

func isDateOnly(prop *ics.IANAProperty) bool {
	if vs, ok := prop.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(prop.Value, "T")
}

// parseTimeValue parses an EXDATE-style value, aligning zone-less values with
// the event's own location.
func parseTimeValue(v string, loc *time.Location) (time.Time, error) {
	if strings.HasSuffix(v, "Z") {
		return time.Parse(dateTimeUTCLayout, v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation(dateTimeLayout, v, loc)
	}
	return time.ParseInLocation(dateLayout, v, loc)
}
