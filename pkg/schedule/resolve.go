// Package schedule computes timezone-aware reminder instants and registers
// one-shot triggers for them with the external scheduling service.
package schedule

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/samuelstranges/chronos-sync/internal/models"
)

// ResolveConfig carries the per-invocation settings the resolution step
// needs. Callers build it from the planner configuration.
type ResolveConfig struct {
	Group        string
	LeadMinutes  int
	FallbackZone *time.Location
	FallbackName string
}

// BuildTrigger decides whether occ warrants a reminder and, if so, produces
// the trigger to register. A nil trigger with a nil error means the reminder
// instant is not strictly in the future; that is the expected outcome for
// past events, not a failure.
//
// The reminder instant is computed zone-preservingly: a zoned start yields a
// zoned reminder in the same zone, a floating start yields a floating
// reminder. Floating reminders are interpreted in the fallback zone, which
// stands in for the event owner's local zone. Interpreting them in the
// evaluating process's zone instead would misclassify near-future events
// whenever the two zones differ.
func BuildTrigger(occ models.Occurrence, cfg ResolveConfig, now time.Time) (*models.TriggerRequest, error) {
	reminder := occ.Start.Add(-time.Duration(cfg.LeadMinutes) * time.Minute)

	if !reminder.Absolute(cfg.FallbackZone).After(now) {
		return nil, nil
	}

	payload, err := json.Marshal(models.ReminderPayload{
		EventSummary:     occ.Title,
		EventLocation:    occ.Location,
		EventTime:        occ.Start.ISO8601(),
		NotificationType: models.NotificationTypeReminder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reminder payload: %w", err)
	}

	// The trigger grammar forbids zone markers inside the instant string;
	// the zone always travels in the separate timezone field.
	timezone := cfg.FallbackName
	if reminder.IsZoned() {
		timezone = reminder.Zone()
	}

	return &models.TriggerRequest{
		Name:       models.TriggerName(occ.UID, occ.Start),
		Group:      cfg.Group,
		Expression: fmt.Sprintf("at(%s)", reminder.Clock()),
		Timezone:   timezone,
		Payload:    string(payload),
		Summary:    occ.Title,
	}, nil
}
