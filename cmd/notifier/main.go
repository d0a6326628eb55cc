// Lambda entrypoint for the reminder notifier: validates a fired trigger's
// payload and dispatches the formatted reminder over SNS.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/samuelstranges/chronos-sync/internal/notifier"
	"github.com/samuelstranges/chronos-sync/pkg/config"
	"github.com/samuelstranges/chronos-sync/pkg/notify"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error("Failed to load AWS configuration", "error", err)
		os.Exit(1)
	}

	snsClient := sns.NewFromConfig(awsCfg)

	transports := func(cfg *config.Notifier) notify.Transport {
		return notify.NewSNSTransport(snsClient, cfg.TopicARN)
	}

	handler := notifier.NewHandler(transports, logger)

	lambda.Start(func(ctx context.Context, req notifier.Request) (notifier.Response, error) {
		cfg, err := config.NotifierFromEnv()
		if err != nil {
			logger.Error("Invalid configuration", "error", err)
			return notifier.Failure(err), nil
		}
		return handler.Handle(ctx, cfg, req), nil
	})
}
