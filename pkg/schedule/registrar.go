package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"
	"github.com/aws/aws-sdk-go-v2/service/scheduler/types"
	"github.com/google/uuid"

	"github.com/samuelstranges/chronos-sync/internal/models"
)

// API is the subset of the EventBridge Scheduler client the registrar uses.
type API interface {
	CreateSchedule(ctx context.Context, params *scheduler.CreateScheduleInput, optFns ...func(*scheduler.Options)) (*scheduler.CreateScheduleOutput, error)
	CreateScheduleGroup(ctx context.Context, params *scheduler.CreateScheduleGroupInput, optFns ...func(*scheduler.Options)) (*scheduler.CreateScheduleGroupOutput, error)
	DeleteScheduleGroup(ctx context.Context, params *scheduler.DeleteScheduleGroupInput, optFns ...func(*scheduler.Options)) (*scheduler.DeleteScheduleGroupOutput, error)
}

// RegistrationError reports a trigger the scheduling service rejected. It
// carries the occurrence title for diagnostics.
type RegistrationError struct {
	Summary string
	Err     error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("failed to create schedule for %q: %v", e.Summary, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// RegistrarConfig holds the per-invocation registration settings.
type RegistrarConfig struct {
	Group      string
	TargetARN  string
	RoleARN    string
	SettleWait time.Duration
}

// Registrar registers triggers with the scheduling service and owns the
// full-rebuild protocol for the trigger group.
type Registrar struct {
	api    API
	cfg    RegistrarConfig
	logger *slog.Logger

	// sleep is swappable so tests do not wait out the settle delay.
	sleep func(time.Duration)
}

// NewRegistrar creates a Registrar over the given scheduler client.
func NewRegistrar(api API, cfg RegistrarConfig, logger *slog.Logger) *Registrar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registrar{
		api:    api,
		cfg:    cfg,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// Rebuild clears the trigger group and recreates it empty. Group deletion is
// asynchronous on the service side, so a bounded settle wait separates the
// delete from the recreate; if deletion has not settled by then, the create
// fails and surfaces to the caller. The service has no atomic replace-all,
// which is why every planning run runs this sequence before registering.
func (r *Registrar) Rebuild(ctx context.Context) error {
	group := r.cfg.Group

	_, err := r.api.DeleteScheduleGroup(ctx, &scheduler.DeleteScheduleGroupInput{
		Name: aws.String(group),
	})
	switch {
	case err == nil:
		r.logger.Info("Deleted schedule group", "group", group)
		r.logger.Info("Waiting for schedule group deletion to settle", "wait", r.cfg.SettleWait)
		r.sleep(r.cfg.SettleWait)
	case isNotFound(err):
		r.logger.Info("Schedule group does not exist, creating new one", "group", group)
	default:
		return fmt.Errorf("failed to delete schedule group %s: %w", group, err)
	}

	return r.ensureGroup(ctx)
}

func (r *Registrar) ensureGroup(ctx context.Context) error {
	group := r.cfg.Group

	_, err := r.api.CreateScheduleGroup(ctx, &scheduler.CreateScheduleGroupInput{
		Name:        aws.String(group),
		ClientToken: aws.String(uuid.NewString()),
	})
	switch {
	case err == nil:
		r.logger.Info("Created schedule group", "group", group)
	case isConflict(err):
		r.logger.Info("Schedule group already exists, continuing", "group", group)
	default:
		return fmt.Errorf("failed to create schedule group %s: %w", group, err)
	}
	return nil
}

// Register issues one trigger to the scheduling service.
func (r *Registrar) Register(ctx context.Context, trigger *models.TriggerRequest) error {
	_, err := r.api.CreateSchedule(ctx, &scheduler.CreateScheduleInput{
		Name:                       aws.String(trigger.Name),
		GroupName:                  aws.String(trigger.Group),
		ScheduleExpression:         aws.String(trigger.Expression),
		ScheduleExpressionTimezone: aws.String(trigger.Timezone),
		Target: &types.Target{
			Arn:     aws.String(r.cfg.TargetARN),
			RoleArn: aws.String(r.cfg.RoleARN),
			Input:   aws.String(trigger.Payload),
		},
		FlexibleTimeWindow: &types.FlexibleTimeWindow{
			Mode: types.FlexibleTimeWindowModeOff,
		},
		ClientToken: aws.String(uuid.NewString()),
	})
	if err != nil {
		return &RegistrationError{Summary: trigger.Summary, Err: err}
	}

	r.logger.Info("Created schedule",
		"name", trigger.Name,
		"expression", trigger.Expression,
		"timezone", trigger.Timezone)
	return nil
}

func isNotFound(err error) bool {
	var nf *types.ResourceNotFoundException
	return errors.As(err, &nf)
}

func isConflict(err error) bool {
	var conflict *types.ConflictException
	return errors.As(err, &conflict)
}
