// chronos-sync is the local runner: it expands a directory of .ics files
// over the lookahead window and reports the triggers a planning run would
// register, optionally dispatching the reminders over NATS instead of the
// cloud transport.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samuelstranges/chronos-sync/pkg/calendar/ical"
	"github.com/samuelstranges/chronos-sync/pkg/config"
	"github.com/samuelstranges/chronos-sync/pkg/notify"
	"github.com/samuelstranges/chronos-sync/pkg/schedule"
)

const defaultConfigPath = "config.yaml"

var (
	configPath = flag.String("config", defaultConfigPath, "Path to configuration file")
	dirPath    = flag.String("dir", ".", "Directory containing .ics calendar files")
	version    = flag.Bool("version", false, "Print version information")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	dryRun     = flag.Bool("dry-run", false, "Report triggers without publishing reminders")
)

// Version information - can be set at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("chronos-sync %s\n", Version)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logging, *debug)
	logger.Info("Starting chronos-sync",
		"version", Version,
		"config_path", *configPath,
		"dir", *dirPath,
		"dry_run", *dryRun)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, falling back to defaults when the
// default path does not exist. An explicit path must exist.
func loadConfig(path string) (*config.Local, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == defaultConfigPath {
		return config.DefaultLocal(), nil
	}
	return config.LoadLocal(path)
}

func run(ctx context.Context, cfg *config.Local, logger *slog.Logger) error {
	paths, err := calendarFiles(*dirPath)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		logger.Info("No calendar files found", "dir", *dirPath)
		return nil
	}

	transport, err := buildTransport(cfg, logger)
	if err != nil {
		return err
	}
	if closer, ok := transport.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	resolveCfg := schedule.ResolveConfig{
		Group:        "local",
		LeadMinutes:  cfg.LeadMinutes,
		FallbackZone: cfg.FallbackZone,
		FallbackName: cfg.FallbackTimezone,
	}
	now := time.Now()
	dispatcher := notify.NewDispatcher(transport, logger)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		occurrences, err := ical.UpcomingOccurrences(data, now, cfg.LookaheadDays, logger)
		if err != nil {
			return fmt.Errorf("failed to process %s: %w", path, err)
		}

		for _, occ := range occurrences {
			trigger, err := schedule.BuildTrigger(occ, resolveCfg, now)
			if err != nil {
				return err
			}
			if trigger == nil {
				logger.Debug("Reminder instant already passed", "title", occ.Title)
				continue
			}

			logger.Info("Would register trigger",
				"name", trigger.Name,
				"expression", trigger.Expression,
				"timezone", trigger.Timezone,
				"title", occ.Title)

			if _, err := dispatcher.Dispatch(ctx, occ.Title, cfg.LeadMinutes); err != nil {
				return err
			}
		}

		logger.Info("Processed calendar file", "path", path, "events", len(occurrences))
	}

	return nil
}

// buildTransport picks the reminder transport: a logging stand-in for
// dry-run mode or when no NATS URL is configured, NATS otherwise.
func buildTransport(cfg *config.Local, logger *slog.Logger) (notify.Transport, error) {
	if *dryRun || cfg.NATS.URL == "" {
		return &logTransport{logger: logger}, nil
	}
	return notify.NewNATSTransport(&notify.NATSConfig{
		URL:            cfg.NATS.URL,
		Subject:        cfg.NATS.Subject,
		ConnectTimeout: 5 * time.Second,
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  10,
	}, logger)
}

func calendarFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".ics") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	return paths, nil
}

// logTransport logs reminders instead of delivering them.
type logTransport struct {
	logger *slog.Logger
}

func (t *logTransport) Publish(ctx context.Context, subject, message string) (string, error) {
	t.logger.Info("[DRY RUN] Would publish reminder",
		"subject", subject,
		"message", message)
	return "", nil
}

// setupLogger configures the application logger
func setupLogger(cfg config.LoggingConfig, debugMode bool) *slog.Logger {
	var level slog.Level

	if debugMode {
		level = slog.LevelDebug
	} else {
		switch cfg.Level {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
