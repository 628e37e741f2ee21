package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prodentai/companion/internal/config"
	"github.com/prodentai/companion/internal/logging"
)

// Start starts the Asynq worker in non-blocking mode and returns a stop function.
func Start(cfg *config.Config, poller *Poller, log *logging.Logger) (stop func(), err error) {
	srv, mux, err := newServer(cfg, poller, log)
	if err != nil {
		return nil, err
	}
	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}
	return func() { srv.Shutdown() }, nil
}

func newServer(cfg *config.Config, poller *Poller, log *logging.Logger) (*asynq.Server, *asynq.ServeMux, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     1,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler:    asynq.ErrorHandlerFunc(makeErrorHandler(log)),
			Logger:          &asynqLoggerAdapter{logger: log},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskReminderScan, handleReminderScan(log, poller, time.Now))

	log.Info("Worker starting", "concurrency", 1)
	return srv, mux, nil
}

// handleReminderScan runs one poller scan for the minute the task is handled in.
func handleReminderScan(log *logging.Logger, poller *Poller, now func() time.Time) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		res, err := poller.Scan(ctx, now())
		if err != nil {
			return fmt.Errorf("reminder scan failed: %v: %w", err, asynq.SkipRetry)
		}
		if res.Due > 0 {
			log.Info(
				"Processed reminder:scan task",
				"users", res.Users,
				"due", res.Due,
				"sent", res.Sent,
				"failed", res.Failed,
			)
		}
		return nil
	}
}

// makeErrorHandler creates an error handler function with logger closure.
func makeErrorHandler(log *logging.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		log.Error(
			"Task execution failed",
			"task_type", task.Type(),
			"error", err.Error(),
			"retry_count", retried,
			"max_retry", maxRetry,
		)
	}
}
