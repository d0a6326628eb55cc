package schedule

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/samuelstranges/chronos-sync/internal/models"
)

func utcResolveConfig() ResolveConfig {
	return ResolveConfig{
		Group:        "ical-notifications",
		LeadMinutes:  15,
		FallbackZone: time.UTC,
		FallbackName: "UTC",
	}
}

func TestBuildTriggerZonedFuture(t *testing.T) {
	melbourne, _ := time.LoadLocation("Australia/Melbourne")
	occ := models.Occurrence{
		Title: "Morning standup",
		UID:   "standup-1",
		Start: models.Zoned(time.Date(2025, 9, 19, 9, 15, 0, 0, melbourne), "Australia/Melbourne"),
	}

	// One hour before the reminder instant.
	now := time.Date(2025, 9, 19, 9, 0, 0, 0, melbourne).Add(-time.Hour)

	trigger, err := BuildTrigger(occ, utcResolveConfig(), now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if trigger == nil {
		t.Fatal("Expected trigger for future zoned occurrence")
	}

	if trigger.Expression != "at(2025-09-19T09:00:00)" {
		t.Errorf("Expected at(2025-09-19T09:00:00), got %q", trigger.Expression)
	}
	if trigger.Timezone != "Australia/Melbourne" {
		t.Errorf("Expected original zone carried out-of-band, got %q", trigger.Timezone)
	}
	if trigger.Group != "ical-notifications" {
		t.Errorf("Expected group ical-notifications, got %q", trigger.Group)
	}
}

func TestBuildTriggerZonedPastDiscarded(t *testing.T) {
	melbourne, _ := time.LoadLocation("Australia/Melbourne")
	occ := models.Occurrence{
		Title: "Old meeting",
		UID:   "old-1",
		Start: models.Zoned(time.Date(2025, 9, 19, 9, 15, 0, 0, melbourne), "Australia/Melbourne"),
	}

	now := time.Date(2025, 9, 19, 10, 0, 0, 0, melbourne)

	trigger, err := BuildTrigger(occ, utcResolveConfig(), now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if trigger != nil {
		t.Error("Expected past occurrence to be discarded")
	}
}

func TestBuildTriggerBoundaryDiscarded(t *testing.T) {
	// A reminder instant exactly equal to "now" is not strictly in the
	// future and must be discarded.
	occ := models.Occurrence{
		Title: "Boundary case",
		UID:   "edge-1",
		Start: models.Zoned(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), "UTC"),
	}

	now := time.Date(2025, 1, 1, 9, 45, 0, 0, time.UTC)

	trigger, err := BuildTrigger(occ, utcResolveConfig(), now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if trigger != nil {
		t.Error("Expected boundary occurrence to be discarded")
	}
}

func TestBuildTriggerFloatingFallbackZone(t *testing.T) {
	ny, _ := time.LoadLocation("America/New_York")
	cfg := ResolveConfig{
		Group:        "ical-notifications",
		LeadMinutes:  15,
		FallbackZone: ny,
		FallbackName: "America/New_York",
	}

	occ := models.Occurrence{
		Title: "Christmas brunch",
		UID:   "brunch-1",
		Start: models.Floating(time.Date(2024, 12, 25, 10, 0, 0, 0, time.UTC)),
	}

	// Reminder is 09:45 New York time, i.e. 14:45 UTC.
	reminderUTC := time.Date(2024, 12, 25, 14, 45, 0, 0, time.UTC)

	trigger, err := BuildTrigger(occ, cfg, reminderUTC.Add(-time.Minute))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if trigger == nil {
		t.Fatal("Expected trigger when now is before the zoned reminder instant")
	}
	if trigger.Expression != "at(2024-12-25T09:45:00)" {
		t.Errorf("Expected at(2024-12-25T09:45:00), got %q", trigger.Expression)
	}
	if trigger.Timezone != "America/New_York" {
		t.Errorf("Expected fallback zone carried out-of-band, got %q", trigger.Timezone)
	}

	trigger, err = BuildTrigger(occ, cfg, reminderUTC.Add(time.Minute))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if trigger != nil {
		t.Error("Expected no trigger when now is after the zoned reminder instant")
	}
}

func TestBuildTriggerExpressionNeverCarriesZone(t *testing.T) {
	melbourne, _ := time.LoadLocation("Australia/Melbourne")
	occs := []models.Occurrence{
		{Title: "Zoned", UID: "z", Start: models.Zoned(time.Date(2030, 6, 1, 12, 0, 0, 0, melbourne), "Australia/Melbourne")},
		{Title: "Floating", UID: "f", Start: models.Floating(time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC))},
	}

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, occ := range occs {
		trigger, err := BuildTrigger(occ, utcResolveConfig(), now)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if trigger == nil {
			t.Fatal("Expected trigger")
		}
		if strings.ContainsAny(trigger.Expression, "Z+") {
			t.Errorf("Expression %q must not embed a zone marker", trigger.Expression)
		}
		if trigger.Timezone == "" {
			t.Error("Expected timezone to be supplied out-of-band")
		}
	}
}

func TestBuildTriggerPayload(t *testing.T) {
	occ := models.Occurrence{
		Title:    "Team lunch",
		Location: "Cafe downstairs",
		UID:      "lunch-1",
		Start:    models.Zoned(time.Date(2030, 6, 1, 12, 30, 0, 0, time.UTC), "UTC"),
	}

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	trigger, err := BuildTrigger(occ, utcResolveConfig(), now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if trigger == nil {
		t.Fatal("Expected trigger")
	}

	var payload models.ReminderPayload
	if err := json.Unmarshal([]byte(trigger.Payload), &payload); err != nil {
		t.Fatalf("Payload is not valid JSON: %v", err)
	}
	if payload.EventSummary != "Team lunch" {
		t.Errorf("Expected summary Team lunch, got %q", payload.EventSummary)
	}
	if payload.EventLocation != "Cafe downstairs" {
		t.Errorf("Expected location carried, got %q", payload.EventLocation)
	}
	if payload.EventTime != "2030-06-01T12:30:00+00:00" {
		t.Errorf("Unexpected event time %q", payload.EventTime)
	}
	if payload.NotificationType != "calendar_reminder" {
		t.Errorf("Expected calendar_reminder tag, got %q", payload.NotificationType)
	}
}

func TestBuildTriggerNameDeterminism(t *testing.T) {
	occ := models.Occurrence{
		Title: "Repeatable",
		UID:   "repeat-1",
		Start: models.Floating(time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)),
	}

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first, err := BuildTrigger(occ, utcResolveConfig(), now)
	if err != nil || first == nil {
		t.Fatalf("Expected trigger, got %v, %v", first, err)
	}
	second, err := BuildTrigger(occ, utcResolveConfig(), now)
	if err != nil || second == nil {
		t.Fatalf("Expected trigger, got %v, %v", second, err)
	}
	if first.Name != second.Name {
		t.Errorf("Expected identical trigger names, got %q and %q", first.Name, second.Name)
	}
}
