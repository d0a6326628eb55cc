// Package notifier handles fired reminder triggers: validate the payload,
// format a bounded message, and dispatch it through the message transport.
package notifier

import (
	"context"
	"log/slog"

	"github.com/samuelstranges/chronos-sync/pkg/config"
	"github.com/samuelstranges/chronos-sync/pkg/notify"
)

// Request is the fired-trigger payload. Fields are pointers so a missing
// field can be told apart from an empty one.
type Request struct {
	EventSummary     *string `json:"event_summary"`
	EventLocation    *string `json:"event_location"`
	EventTime        *string `json:"event_time"`
	NotificationType *string `json:"notification_type"`
}

// Response is the notifier invocation result.
type Response struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	EventSummary  string `json:"event_summary,omitempty"`
	MessageID     string `json:"message_id,omitempty"`
	MessageLength int    `json:"message_length,omitempty"`
	Error         string `json:"error,omitempty"`
}

// TransportFactory builds a transport bound to one invocation's
// configuration.
type TransportFactory func(cfg *config.Notifier) notify.Transport

// Handler runs dispatch invocations.
type Handler struct {
	transports TransportFactory
	logger     *slog.Logger
}

// NewHandler creates a notifier handler.
func NewHandler(transports TransportFactory, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{transports: transports, logger: logger}
}

// Failure builds the error-shaped response.
func Failure(err error) Response {
	return Response{Success: false, Error: err.Error()}
}

// Handle processes one fired trigger. Payload validation happens before any
// transport call and names every missing field at once.
func (h *Handler) Handle(ctx context.Context, cfg *config.Notifier, req Request) Response {
	if err := validate(req); err != nil {
		return Failure(err)
	}

	dispatcher := notify.NewDispatcher(h.transports(cfg), h.logger)
	result, err := dispatcher.Dispatch(ctx, *req.EventSummary, cfg.LeadMinutes)
	if err != nil {
		return Failure(err)
	}

	return Response{
		Success:       true,
		Message:       "Notification sent successfully",
		EventSummary:  *req.EventSummary,
		MessageID:     result.MessageID,
		MessageLength: len([]rune(result.Message)),
	}
}

func validate(req Request) error {
	var missing []string
	if req.EventSummary == nil {
		missing = append(missing, "event_summary")
	}
	if req.EventTime == nil {
		missing = append(missing, "event_time")
	}
	if req.NotificationType == nil {
		missing = append(missing, "notification_type")
	}
	if len(missing) > 0 {
		return &notify.ValidationError{Missing: missing}
	}
	return nil
}
