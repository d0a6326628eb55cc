package ical

import (
	"bytes"
	"log/slog"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/samuelstranges/chronos-sync/internal/models"
)

// maxOccurrencesPerEvent caps recurrence expansion so a pathological rule
// cannot flood a planning run.
const maxOccurrencesPerEvent = 1000

// UpcomingOccurrences expands a calendar document into concrete occurrences
// whose start falls within [now, now + lookaheadDays]. Whole-day events are
// excluded unconditionally. Zoned starts are window-checked against absolute
// time; floating starts are checked against the UTC wall clock, deferring any
// zone commitment to the reminder resolution step.
func UpcomingOccurrences(data []byte, now time.Time, lookaheadDays int, logger *slog.Logger) ([]models.Occurrence, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	events, err := parseDocument(data, logger)
	if err != nil {
		return nil, err
	}

	window := time.Duration(lookaheadDays) * 24 * time.Hour
	absStart := now
	absEnd := now.Add(window)

	// Naive reference clock for floating events: the UTC wall reading of now.
	naiveStart := now.UTC()
	naiveEnd := naiveStart.Add(window)

	var occurrences []models.Occurrence
	for _, ev := range events {
		if ev.allDay {
			logger.Debug("Skipping all-day event", "title", titleOf(ev))
			continue
		}

		starts := expandEvent(ev, absStart, absEnd, naiveStart, naiveEnd, logger)
		for _, start := range starts {
			occurrences = append(occurrences, models.Occurrence{
				Title:       titleOf(ev),
				Start:       start,
				Location:    ev.location,
				Description: ev.description,
				UID:         ev.uid,
			})
		}
	}

	return occurrences, nil
}

// expandEvent yields the in-window start instants for one event, expanding
// its recurrence rule when present.
func expandEvent(ev parsedEvent, absStart, absEnd, naiveStart, naiveEnd time.Time, logger *slog.Logger) []models.Instant {
	winStart, winEnd := absStart, absEnd
	if !ev.start.IsZoned() {
		winStart, winEnd = naiveStart, naiveEnd
	}

	if ev.rawRRule == "" {
		w := ev.start.Wall()
		if w.Before(winStart) || w.After(winEnd) {
			return nil
		}
		return []models.Instant{ev.start}
	}

	rule, err := rrule.StrToRRule(ev.rawRRule)
	if err != nil {
		logger.Warn("Failed to parse RRULE, skipping event", "error", err, "uid", ev.uid, "rrule", ev.rawRRule)
		return nil
	}
	rule.DTStart(ev.start.Wall())

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range ev.exDates {
		set.ExDate(ex.In(ev.start.Wall().Location()))
	}

	loc := ev.start.Wall().Location()
	times := set.Between(winStart.In(loc), winEnd.In(loc), true)
	if len(times) > maxOccurrencesPerEvent {
		logger.Warn("Recurrence expansion truncated", "uid", ev.uid, "cap", maxOccurrencesPerEvent)
		times = times[:maxOccurrencesPerEvent]
	}

	starts := make([]models.Instant, 0, len(times))
	for _, t := range times {
		if ev.start.IsZoned() {
			starts = append(starts, models.Zoned(t, ev.start.Zone()))
		} else {
			starts = append(starts, models.Floating(t))
		}
	}
	return starts
}

func titleOf(ev parsedEvent) string {
	if ev.summary == "" {
		return models.DefaultTitle
	}
	return ev.summary
}
