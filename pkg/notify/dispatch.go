package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// DefaultSubject is the fixed subject line attached to every reminder.
const DefaultSubject = "Calendar Reminder"

// Transport is a fire-and-forget text delivery collaborator. Publish returns
// a transport-assigned message identifier when one exists.
type Transport interface {
	Publish(ctx context.Context, subject, message string) (string, error)
}

// ValidationError reports required payload fields missing from a fired
// trigger. All missing fields are named at once.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// DispatchError reports a message the transport rejected. Retrying is the
// transport's or the upstream scheduler's concern, not ours.
type DispatchError struct {
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("failed to send notification: %v", e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Result describes a successfully dispatched reminder.
type Result struct {
	Message   string
	MessageID string
}

// Dispatcher formats reminders and hands them to the transport.
type Dispatcher struct {
	transport Transport
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher over the given transport.
func NewDispatcher(transport Transport, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{transport: transport, logger: logger}
}

// Dispatch formats the event summary and publishes the reminder.
func (d *Dispatcher) Dispatch(ctx context.Context, eventSummary string, leadMinutes int) (*Result, error) {
	message := FormatMessage(eventSummary, leadMinutes)

	d.logger.Info("Formatted reminder message",
		"length", len([]rune(message)),
		"message", message)

	id, err := d.transport.Publish(ctx, DefaultSubject, message)
	if err != nil {
		return nil, &DispatchError{Err: err}
	}

	d.logger.Info("Reminder sent", "message_id", id)
	return &Result{Message: message, MessageID: id}, nil
}
