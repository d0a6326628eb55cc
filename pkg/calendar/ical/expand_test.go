package ical

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

var expandNow = time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)

func TestUpcomingOccurrencesWindowFilter(t *testing.T) {
	// Event 2 days past "now".
	icalData := `BEGIN:VCALENDAR
VERSION:2.0
BEGIN:VEVENT
UID:window-1
DTSTART:20241222T100000
SUMMARY:Two days out
END:VEVENT
END:VCALENDAR`

	occs, err := UpcomingOccurrences([]byte(icalData), expandNow, 7, slog.Default())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(occs) != 1 {
		t.Fatalf("Expected event included with lookahead 7, got %d occurrences", len(occs))
	}

	occs, err = UpcomingOccurrences([]byte(icalData), expandNow, 1, slog.Default())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(occs) != 0 {
		t.Errorf("Expected event excluded with lookahead 1, got %d occurrences", len(occs))
	}
}

func TestUpcomingOccurrencesExcludesWholeDayEvents(t *testing.T) {
	icalData := `BEGIN:VCALENDAR
VERSION:2.0
BEGIN:VEVENT
UID:birthday-1
DTSTART;VALUE=DATE:20241222
SUMMARY:Birthday
END:VEVENT
BEGIN:VEVENT
UID:meeting-1
DTSTART:20241222T100000
SUMMARY:Timed meeting
END:VEVENT
END:VCALENDAR`

	for _, lookahead := range []int{1, 7, 365} {
		occs, err := UpcomingOccurrences([]byte(icalData), expandNow, lookahead, slog.Default())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		for _, occ := range occs {
			if occ.UID == "birthday-1" {
				t.Errorf("Whole-day event appeared in output with lookahead %d", lookahead)
			}
		}
	}
}

func TestUpcomingOccurrencesExpandsRecurrence(t *testing.T) {
	icalData := `BEGIN:VCALENDAR
VERSION:2.0
BEGIN:VEVENT
UID:daily-1
DTSTART:20241220T090000
RRULE:FREQ=DAILY
SUMMARY:Daily standup
END:VEVENT
END:VCALENDAR`

	occs, err := UpcomingOccurrences([]byte(icalData), expandNow, 3, slog.Default())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	// Window is [Dec 20 00:00, Dec 23 00:00]; the 09:00 slots on the 20th,
	// 21st and 22nd are inside it, the 23rd is not.
	if len(occs) != 3 {
		t.Fatalf("Expected 3 occurrences, got %d", len(occs))
	}
	for i, occ := range occs {
		wantDay := 20 + i
		if occ.Start.Wall().Day() != wantDay {
			t.Errorf("Occurrence %d: expected day %d, got %d", i, wantDay, occ.Start.Wall().Day())
		}
		if occ.Start.IsZoned() {
			t.Error("Expected recurring floating event to stay floating")
		}
	}
}

func TestUpcomingOccurrencesHonorsExdate(t *testing.T) {
	icalData := `BEGIN:VCALENDAR
VERSION:2.0
BEGIN:VEVENT
UID:daily-2
DTSTART:20241220T090000
RRULE:FREQ=DAILY
EXDATE:20241221T090000
SUMMARY:Daily with a gap
END:VEVENT
END:VCALENDAR`

	occs, err := UpcomingOccurrences([]byte(icalData), expandNow, 3, slog.Default())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for _, occ := range occs {
		if occ.Start.Wall().Day() == 21 {
			t.Error("EXDATE occurrence should have been removed")
		}
	}
	if len(occs) != 2 {
		t.Errorf("Expected 2 occurrences after EXDATE, got %d", len(occs))
	}
}

func TestUpcomingOccurrencesZonedRecurrence(t *testing.T) {
	icalData := `BEGIN:VCALENDAR
VERSION:2.0
BEGIN:VEVENT
UID:weekly-mel
DTSTART;TZID=Australia/Melbourne:20241220T091500
RRULE:FREQ=WEEKLY
SUMMARY:Weekly sync
END:VEVENT
END:VCALENDAR`

	occs, err := UpcomingOccurrences([]byte(icalData), expandNow, 7, slog.Default())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(occs) == 0 {
		t.Fatal("Expected at least one occurrence")
	}
	for _, occ := range occs {
		if !occ.Start.IsZoned() || occ.Start.Zone() != "Australia/Melbourne" {
			t.Errorf("Expected zoned occurrence in Australia/Melbourne, got %q", occ.Start.Zone())
		}
		if occ.Start.Wall().Hour() != 9 || occ.Start.Wall().Minute() != 15 {
			t.Errorf("Expected 09:15 local start, got %v", occ.Start.Wall())
		}
	}
}

func TestUpcomingOccurrencesDefaults(t *testing.T) {
	icalData := `BEGIN:VCALENDAR
VERSION:2.0
BEGIN:VEVENT
UID:untitled-1
DTSTART:20241222T100000
END:VEVENT
END:VCALENDAR`

	occs, err := UpcomingOccurrences([]byte(icalData), expandNow, 7, slog.Default())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(occs) != 1 {
		t.Fatalf("Expected 1 occurrence, got %d", len(occs))
	}

	occ := occs[0]
	if occ.Title != "Untitled Event" {
		t.Errorf("Expected default title, got %q", occ.Title)
	}
	if occ.Location != "" || occ.Description != "" {
		t.Errorf("Expected empty defaults, got %+v", occ)
	}
}

func TestUpcomingOccurrencesEmptyDocument(t *testing.T) {
	occs, err := UpcomingOccurrences(nil, expandNow, 7, slog.Default())
	if err != nil {
		t.Fatalf("Expected no error for empty document, got %v", err)
	}
	if len(occs) != 0 {
		t.Errorf("Expected no occurrences, got %d", len(occs))
	}
}

func TestUpcomingOccurrencesHeaderOnlyDocument(t *testing.T) {
	icalData := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Example//Calendar//EN
END:VCALENDAR`

	occs, err := UpcomingOccurrences([]byte(icalData), expandNow, 7, slog.Default())
	if err != nil {
		t.Fatalf("Expected no error for header-only document, got %v", err)
	}
	if len(occs) != 0 {
		t.Errorf("Expected no occurrences, got %d", len(occs))
	}
}

func TestUpcomingOccurrencesMalformedDocument(t *testing.T) {
	_, err := UpcomingOccurrences([]byte("garbage"), expandNow, 7, slog.Default())
	if err == nil {
		t.Fatal("Expected error for malformed document")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got %T", err)
	}
}
