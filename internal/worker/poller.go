package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prodentai/companion/internal/logging"
	"github.com/prodentai/companion/internal/models"
	"github.com/prodentai/companion/internal/reminders"
)

// Notification is one reminder ready for delivery.
type Notification struct {
	ChatID     int64  `json:"chat_id"`
	UserID     uint   `json:"user_id"`
	ReminderID uint   `json:"reminder_id"`
	Type       string `json:"reminder_type"`
	Text       string `json:"text"`
}

// Source lists the users that can receive reminders and their reminders.
type Source interface {
	TelegramUsers(ctx context.Context) ([]models.User, error)
	UserReminders(ctx context.Context, userID uint) ([]models.Reminder, error)
}

// Notifier delivers a notification to its chat.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Poller matches reminders against the wall clock once per interval. It does
// not remember what it sent: a minute skipped is never caught up, and two
// scans inside the same minute would both send.
type Poller struct {
	source   Source
	notifier Notifier
	location *time.Location
	interval time.Duration
	log      *logging.Logger
	now      func() time.Time
}

// NewPoller creates a poller. A nil location means UTC; a non-positive
// interval means one minute.
func NewPoller(source Source, notifier Notifier, location *time.Location, interval time.Duration, log *logging.Logger) *Poller {
	if location == nil {
		location = time.UTC
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{
		source:   source,
		notifier: notifier,
		location: location,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// ScanResult counts what one scan did.
type ScanResult struct {
	Users  int
	Due    int
	Sent   int
	Failed int
}

// Scan sends every reminder due at now. Failing to list users aborts the
// scan; failures for a single user or a single delivery are logged and skipped.
func (p *Poller) Scan(ctx context.Context, now time.Time) (ScanResult, error) {
	now = now.In(p.location)
	var res ScanResult

	users, err := p.source.TelegramUsers(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list telegram users: %w", err)
	}

	for _, u := range users {
		if u.TelegramID == nil || *u.TelegramID == 0 {
			continue
		}
		res.Users++

		list, err := p.source.UserReminders(ctx, u.ID)
		if err != nil {
			p.log.Warn("Failed to load reminders", "user_id", u.ID, "error", err)
			continue
		}

		for _, r := range list {
			if !reminders.Due(r, now) {
				continue
			}
			res.Due++

			n := Notification{
				ChatID:     *u.TelegramID,
				UserID:     u.ID,
				ReminderID: r.ID,
				Type:       r.ReminderType,
				Text:       reminders.Text(r),
			}
			if err := p.notifier.Notify(ctx, n); err != nil {
				res.Failed++
				p.log.Error("Failed to send reminder", "user_id", u.ID, "reminder_id", r.ID, "error", err)
				continue
			}
			res.Sent++
			p.log.Info("Sent reminder", "user_id", u.ID, "reminder_id", r.ID, "type", r.ReminderType)
		}
	}
	return res, nil
}

// Run scans, then sleeps for the interval, until ctx is cancelled. Errors are
// logged and the loop carries on.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("Reminder poller started", "interval", p.interval.String(), "timezone", p.location.String())

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("Reminder poller stopped")
			return nil
		case <-timer.C:
		}

		res, err := p.Scan(ctx, p.now())
		switch {
		case err != nil && !errors.Is(err, context.Canceled):
			p.log.Error("Reminder scan failed", "error", err)
		case res.Due > 0:
			p.log.Info("Reminder scan finished", "users", res.Users, "due", res.Due, "sent", res.Sent, "failed", res.Failed)
		default:
			p.log.Debug("Reminder scan finished", "users", res.Users)
		}

		timer.Reset(p.interval)
	}
}
