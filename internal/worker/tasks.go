package worker

import (
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TaskReminderScan = "reminder:scan"
)

// ScanSchedule fires the reminder scan at the start of every minute.
const ScanSchedule = "* * * * *"

// NewReminderScanTask builds the periodic scan task. It is never retried: a
// late scan would send reminders for a minute that has already passed.
func NewReminderScanTask() *asynq.Task {
	return asynq.NewTask(
		TaskReminderScan,
		nil, // Empty payload - the handler scans the current minute
		asynq.MaxRetry(0),
		asynq.Timeout(50*time.Second),
		asynq.Retention(time.Hour),
		asynq.Unique(55*time.Second), // One scan per minute even if two schedulers run
	)
}
