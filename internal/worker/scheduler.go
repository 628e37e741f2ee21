package worker

import (
	"fmt"
	"time"
	_ "time/tzdata" // zoneinfo for minimal container images

	"github.com/hibiken/asynq"
	"github.com/prodentai/companion/internal/config"
	"github.com/prodentai/companion/internal/logging"
)

// StartScheduler creates and starts an Asynq Scheduler that enqueues the
// reminder scan every minute. Returns a stop function for graceful shutdown.
func StartScheduler(cfg *config.Config, log *logging.Logger) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	location := LoadLocation(cfg.ReminderTimezone, log)

	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: location,
			LogLevel: asynq.InfoLevel,
			Logger:   &asynqLoggerAdapter{logger: log},
		},
	)

	entryID, err := scheduler.Register(ScanSchedule, NewReminderScanTask())
	if err != nil {
		return nil, fmt.Errorf("failed to register reminder schedule: %w", err)
	}

	// Start scheduler (non-blocking)
	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	log.Info(
		"Scheduler started",
		"schedule", ScanSchedule,
		"timezone", location.String(),
		"entry_id", entryID,
	)

	return func() { scheduler.Shutdown() }, nil
}

// LoadLocation resolves the reminder timezone, falling back to UTC.
func LoadLocation(name string, log *logging.Logger) *time.Location {
	if name == "" {
		return time.UTC
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		log.Warn("Invalid timezone, using UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return location
}
