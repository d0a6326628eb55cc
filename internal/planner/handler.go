// Package planner orchestrates one calendar ingest run: rebuild the trigger
// group, refill the calendar bucket from the uploaded archive, expand every
// calendar, and register a trigger for each qualifying occurrence.
package planner

import (
	"context"
	"log/slog"
	"time"

	"github.com/samuelstranges/chronos-sync/internal/models"
	"github.com/samuelstranges/chronos-sync/pkg/archive"
	"github.com/samuelstranges/chronos-sync/pkg/calendar/ical"
	"github.com/samuelstranges/chronos-sync/pkg/config"
	"github.com/samuelstranges/chronos-sync/pkg/schedule"
)

// Request is the planner invocation payload.
type Request struct {
	ZipFile string `json:"zip_file"`
}

// Response is the planner invocation result. Failures carry only Success and
// Error; the handler never lets an error propagate to the invoking platform.
type Response struct {
	Success            bool   `json:"success"`
	Message            string `json:"message,omitempty"`
	BucketName         string `json:"bucket_name,omitempty"`
	ScheduleGroup      string `json:"schedule_group,omitempty"`
	FilesDeleted       int    `json:"files_deleted"`
	CalendarsProcessed int    `json:"calendars_processed"`
	TotalEvents        int    `json:"total_events"`
	SchedulesCleared   bool   `json:"schedules_cleared"`
	Error              string `json:"error,omitempty"`
}

// Storage is the calendar blob store collaborator.
type Storage interface {
	Clear(ctx context.Context, bucket string) (int, error)
	Upload(ctx context.Context, bucket, key string, data []byte) error
	ListCalendars(ctx context.Context, bucket string) ([]string, error)
	Download(ctx context.Context, bucket, key string) ([]byte, error)
}

// Registrar is the trigger-registration collaborator.
type Registrar interface {
	Rebuild(ctx context.Context) error
	Register(ctx context.Context, trigger *models.TriggerRequest) error
}

// RegistrarFactory builds a registrar bound to one invocation's
// configuration.
type RegistrarFactory func(cfg *config.Planner) Registrar

// Handler runs planning invocations. It is stateless across invocations;
// configuration arrives per call.
type Handler struct {
	storage    Storage
	registrars RegistrarFactory
	logger     *slog.Logger
	now        func() time.Time
}

// NewHandler creates a planner handler.
func NewHandler(storage Storage, registrars RegistrarFactory, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		storage:    storage,
		registrars: registrars,
		logger:     logger,
		now:        time.Now,
	}
}

// Failure builds the error-shaped response.
func Failure(err error) Response {
	return Response{Success: false, Error: err.Error()}
}

// Handle processes one planning run to completion. Validation failures are
// reported before any side effect; once the destructive rebuild has begun,
// the first failure aborts the remaining work with no rollback.
func (h *Handler) Handle(ctx context.Context, cfg *config.Planner, req Request) Response {
	if req.ZipFile == "" {
		return Response{Success: false, Error: "zip_file required in event payload"}
	}

	registrar := h.registrars(cfg)

	h.logger.Info("Clearing existing schedules", "group", cfg.ScheduleGroup)
	if err := registrar.Rebuild(ctx); err != nil {
		return Failure(err)
	}

	h.logger.Info("Clearing calendar bucket", "bucket", cfg.BucketName)
	filesDeleted, err := h.storage.Clear(ctx, cfg.BucketName)
	if err != nil {
		return Failure(err)
	}

	h.logger.Info("Processing calendar archive")
	files, err := archive.ExtractCalendars(req.ZipFile)
	if err != nil {
		return Failure(err)
	}
	for _, f := range files {
		if err := h.storage.Upload(ctx, cfg.BucketName, f.Name, f.Data); err != nil {
			return Failure(err)
		}
	}

	h.logger.Info("Creating schedules")
	totalEvents, processed, err := h.planCalendars(ctx, cfg, registrar)
	if err != nil {
		return Failure(err)
	}

	return Response{
		Success:            true,
		Message:            "Calendar processing completed successfully",
		BucketName:         cfg.BucketName,
		ScheduleGroup:      cfg.ScheduleGroup,
		FilesDeleted:       filesDeleted,
		CalendarsProcessed: processed,
		TotalEvents:        totalEvents,
		SchedulesCleared:   true,
	}
}

// planCalendars walks the stored calendars, expands each into occurrences,
// and registers triggers for the ones whose reminder instant is still ahead.
// A registration failure halts the remaining registrations for the run.
func (h *Handler) planCalendars(ctx context.Context, cfg *config.Planner, registrar Registrar) (totalEvents, processed int, err error) {
	keys, err := h.storage.ListCalendars(ctx, cfg.BucketName)
	if err != nil {
		return 0, 0, err
	}
	if len(keys) == 0 {
		h.logger.Info("No calendar files found in bucket")
		return 0, 0, nil
	}

	resolveCfg := schedule.ResolveConfig{
		Group:        cfg.ScheduleGroup,
		LeadMinutes:  cfg.LeadMinutes,
		FallbackZone: cfg.FallbackZone,
		FallbackName: cfg.FallbackZoneName,
	}
	now := h.now()

	for _, key := range keys {
		data, err := h.storage.Download(ctx, cfg.BucketName, key)
		if err != nil {
			return totalEvents, processed, err
		}

		occurrences, err := ical.UpcomingOccurrences(data, now, cfg.LookaheadDays, h.logger)
		if err != nil {
			return totalEvents, processed, err
		}

		registered := 0
		for _, occ := range occurrences {
			trigger, err := schedule.BuildTrigger(occ, resolveCfg, now)
			if err != nil {
				return totalEvents, processed, err
			}
			if trigger == nil {
				h.logger.Info("Skipping past event", "title", occ.Title)
				continue
			}
			if err := registrar.Register(ctx, trigger); err != nil {
				return totalEvents, processed, err
			}
			registered++
		}

		// Counted like the rest of the pipeline reports it: every in-window
		// occurrence, including ones whose reminder already passed.
		totalEvents += len(occurrences)
		processed++
		h.logger.Info("Processed calendar file",
			"key", key,
			"events", len(occurrences),
			"registered", registered)
	}

	return totalEvents, processed, nil
}
