package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables read by the Lambda entry points. Core code never
// reads these directly; a Config struct is built once per invocation at the
// boundary and passed down.
const (
	EnvBucketName       = "S3_BUCKET_NAME"
	EnvScheduleGroup    = "SCHEDULE_GROUP_NAME"
	EnvNotificationARN  = "NOTIFICATION_LAMBDA_ARN"
	EnvSchedulerRoleARN = "SCHEDULER_ROLE_ARN"
	EnvLeadMinutes      = "NOTIFICATION_MINUTES_BEFORE"
	EnvFallbackTimezone = "FALLBACK_TIMEZONE"
	EnvLookaheadDays    = "LOOKAHEAD_DAYS"
	EnvSettleSeconds    = "SCHEDULE_SETTLE_SECONDS"
	EnvTopicARN         = "SNS_TOPIC_ARN"
)

const (
	defaultLeadMinutes   = 15
	defaultFallbackZone  = "UTC"
	defaultLookaheadDays = 7
	defaultSettleWait    = 30 * time.Second

	minLeadMinutes = 1
	maxLeadMinutes = 1440 // 24 hours
)

// ConfigError reports a missing or invalid required setting. It is always
// raised before any side-effecting call.
type ConfigError struct {
	Setting string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Setting, e.Reason)
}

// Planner holds everything the ingest/trigger-planner invocation needs.
type Planner struct {
	BucketName       string
	ScheduleGroup    string
	NotificationARN  string
	SchedulerRoleARN string
	LeadMinutes      int
	FallbackZoneName string
	FallbackZone     *time.Location
	LookaheadDays    int
	SettleWait       time.Duration
}

// Notifier holds everything the reminder-dispatcher invocation needs.
type Notifier struct {
	TopicARN    string
	LeadMinutes int
}

// PlannerFromEnv builds and validates a Planner configuration from the
// process environment.
func PlannerFromEnv() (*Planner, error) {
	cfg := &Planner{
		BucketName:       os.Getenv(EnvBucketName),
		ScheduleGroup:    os.Getenv(EnvScheduleGroup),
		NotificationARN:  os.Getenv(EnvNotificationARN),
		SchedulerRoleARN: os.Getenv(EnvSchedulerRoleARN),
		FallbackZoneName: os.Getenv(EnvFallbackTimezone),
		SettleWait:       defaultSettleWait,
	}

	if cfg.BucketName == "" {
		return nil, &ConfigError{Setting: EnvBucketName, Reason: "environment variable not set"}
	}
	if cfg.ScheduleGroup == "" {
		return nil, &ConfigError{Setting: EnvScheduleGroup, Reason: "environment variable not set"}
	}
	if cfg.NotificationARN == "" || cfg.SchedulerRoleARN == "" {
		return nil, &ConfigError{
			Setting: EnvNotificationARN + " and " + EnvSchedulerRoleARN,
			Reason:  "environment variables are required",
		}
	}

	lead, err := leadMinutesFromEnv()
	if err != nil {
		return nil, err
	}
	cfg.LeadMinutes = lead

	if cfg.FallbackZoneName == "" {
		cfg.FallbackZoneName = defaultFallbackZone
	}
	loc, err := time.LoadLocation(cfg.FallbackZoneName)
	if err != nil {
		return nil, &ConfigError{Setting: EnvFallbackTimezone, Reason: fmt.Sprintf("unknown timezone %q", cfg.FallbackZoneName)}
	}
	cfg.FallbackZone = loc

	cfg.LookaheadDays = defaultLookaheadDays
	if raw := os.Getenv(EnvLookaheadDays); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			return nil, &ConfigError{Setting: EnvLookaheadDays, Reason: "must be a positive integer"}
		}
		cfg.LookaheadDays = days
	}

	if raw := os.Getenv(EnvSettleSeconds); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 0 {
			return nil, &ConfigError{Setting: EnvSettleSeconds, Reason: "must be a non-negative integer"}
		}
		cfg.SettleWait = time.Duration(secs) * time.Second
	}

	return cfg, nil
}

// NotifierFromEnv builds and validates a Notifier configuration from the
// process environment.
func NotifierFromEnv() (*Notifier, error) {
	cfg := &Notifier{
		TopicARN: os.Getenv(EnvTopicARN),
	}

	if cfg.TopicARN == "" {
		return nil, &ConfigError{Setting: EnvTopicARN, Reason: "environment variable not set"}
	}

	lead, err := leadMinutesFromEnv()
	if err != nil {
		return nil, err
	}
	cfg.LeadMinutes = lead

	return cfg, nil
}

func leadMinutesFromEnv() (int, error) {
	raw := os.Getenv(EnvLeadMinutes)
	if raw == "" {
		return defaultLeadMinutes, nil
	}

	minutes, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ConfigError{Setting: EnvLeadMinutes, Reason: "must be a valid integer"}
	}
	if minutes < minLeadMinutes || minutes > maxLeadMinutes {
		return 0, &ConfigError{
			Setting: EnvLeadMinutes,
			Reason:  fmt.Sprintf("must be between %d and %d", minLeadMinutes, maxLeadMinutes),
		}
	}
	return minutes, nil
}
