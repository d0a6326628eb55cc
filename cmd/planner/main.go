// Lambda entrypoint for the calendar planner: receives a zipped calendar
// archive, rebuilds the trigger group, and registers a trigger per upcoming
// occurrence.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"

	"github.com/samuelstranges/chronos-sync/internal/planner"
	"github.com/samuelstranges/chronos-sync/pkg/config"
	"github.com/samuelstranges/chronos-sync/pkg/schedule"
	"github.com/samuelstranges/chronos-sync/pkg/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error("Failed to load AWS configuration", "error", err)
		os.Exit(1)
	}

	storageClient := storage.NewClient(s3.NewFromConfig(awsCfg), logger)
	schedulerClient := scheduler.NewFromConfig(awsCfg)

	registrars := func(cfg *config.Planner) planner.Registrar {
		return schedule.NewRegistrar(schedulerClient, schedule.RegistrarConfig{
			Group:      cfg.ScheduleGroup,
			TargetARN:  cfg.NotificationARN,
			RoleARN:    cfg.SchedulerRoleARN,
			SettleWait: cfg.SettleWait,
		}, logger)
	}

	handler := planner.NewHandler(storageClient, registrars, logger)

	// Configuration is read per invocation so environment changes take
	// effect without a cold start.
	lambda.Start(func(ctx context.Context, req planner.Request) (planner.Response, error) {
		cfg, err := config.PlannerFromEnv()
		if err != nil {
			logger.Error("Invalid configuration", "error", err)
			return planner.Failure(err), nil
		}
		return handler.Handle(ctx, cfg, req), nil
	})
}
