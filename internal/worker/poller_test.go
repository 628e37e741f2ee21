package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prodentai/companion/internal/database"
	"github.com/prodentai/companion/internal/logging"
	"github.com/prodentai/companion/internal/models"
)

type fakeSource struct {
	users     []models.User
	reminders map[uint][]models.Reminder
	usersErr  error
	failUser  uint
}

func (f *fakeSource) TelegramUsers(ctx context.Context) ([]models.User, error) {
	return f.users, f.usersErr
}

func (f *fakeSource) UserReminders(ctx context.Context, userID uint) ([]models.Reminder, error) {
	if userID == f.failUser {
		return nil, errors.New("backend unavailable")
	}
	return f.reminders[userID], nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
	fail map[uint]bool
}

func (r *recordingNotifier) Notify(ctx context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[n.ReminderID] {
		return errors.New("chat not found")
	}
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func user(id uint, chat int64) models.User {
	u := models.User{TelegramID: &chat}
	u.ID = id
	return u
}

func reminder(id uint, typ, hhmm string, date *string, message string) models.Reminder {
	r := models.Reminder{ReminderType: typ, Time: hhmm, Date: date, Message: message, IsActive: true}
	r.ID = id
	return r
}

func strPtr(s string) *string { return &s }

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestScanDailyReminder(t *testing.T) {
	src := &fakeSource{
		users:     []models.User{user(1, 100)},
		reminders: map[uint][]models.Reminder{1: {reminder(10, models.ReminderMorningHygiene, "08:00", nil, "")}},
	}
	n := &recordingNotifier{}
	p := NewPoller(src, n, time.UTC, time.Minute, logging.Nop())

	for _, day := range []string{"2024-12-14", "2024-12-15"} {
		for _, minute := range []string{"07:59", "08:00", "08:01"} {
			if _, err := p.Scan(context.Background(), mustTime(t, day+" "+minute)); err != nil {
				t.Fatalf("Scan: %v", err)
			}
		}
	}

	if len(n.sent) != 2 {
		t.Fatalf("expected one send per day, got %d", len(n.sent))
	}
	if n.sent[0].ChatID != 100 || n.sent[0].Text == "" {
		t.Errorf("unexpected notification: %+v", n.sent[0])
	}
}

func TestScanDatedReminder(t *testing.T) {
	src := &fakeSource{
		users:     []models.User{user(1, 100)},
		reminders: map[uint][]models.Reminder{1: {reminder(11, models.ReminderDentalVisit, "10:00", strPtr("2024-12-15"), "Dentist at 11")}},
	}
	n := &recordingNotifier{}
	p := NewPoller(src, n, time.UTC, time.Minute, logging.Nop())

	for _, ts := range []string{"2024-12-14 10:00", "2024-12-15 10:00", "2024-12-16 10:00"} {
		p.Scan(context.Background(), mustTime(t, ts))
	}
	if len(n.sent) != 1 || n.sent[0].Text != "Dentist at 11" {
		t.Errorf("expected exactly one send on 2024-12-15, got %+v", n.sent)
	}
}

func TestScanUsesReminderTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	src := &fakeSource{
		users:     []models.User{user(1, 100)},
		reminders: map[uint][]models.Reminder{1: {reminder(12, models.ReminderFloss, "21:00", nil, "")}},
	}
	n := &recordingNotifier{}
	p := NewPoller(src, n, loc, time.Minute, logging.Nop())

	// 18:00 UTC is 21:00 in UTC+3
	p.Scan(context.Background(), mustTime(t, "2024-06-01 18:00"))
	if len(n.sent) != 1 {
		t.Errorf("expected the reminder to fire at local 21:00, got %d sends", len(n.sent))
	}
}

func TestScanSkipsFailuresAndUnlinkedUsers(t *testing.T) {
	unlinked := models.User{}
	unlinked.ID = 3
	src := &fakeSource{
		users: []models.User{user(1, 100), user(2, 200), unlinked},
		reminders: map[uint][]models.Reminder{
			1: {reminder(20, models.ReminderFloss, "21:00", nil, ""), reminder(21, models.ReminderFloss, "21:00", nil, "")},
			3: {reminder(30, models.ReminderFloss, "21:00", nil, "")},
		},
		failUser: 2,
	}
	n := &recordingNotifier{fail: map[uint]bool{20: true}}
	p := NewPoller(src, n, time.UTC, time.Minute, logging.Nop())

	res, err := p.Scan(context.Background(), mustTime(t, "2024-06-01 21:00"))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Users != 2 || res.Due != 2 || res.Sent != 1 || res.Failed != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(n.sent) != 1 || n.sent[0].ReminderID != 21 {
		t.Errorf("expected only reminder 21 delivered, got %+v", n.sent)
	}
}

func TestScanFailsWhenUsersUnavailable(t *testing.T) {
	p := NewPoller(&fakeSource{usersErr: errors.New("connection refused")}, &recordingNotifier{}, time.UTC, time.Minute, logging.Nop())
	if _, err := p.Scan(context.Background(), time.Now()); err == nil {
		t.Error("expected an error when users cannot be listed")
	}
}

func TestRunKeepsGoingAfterErrors(t *testing.T) {
	src := &fakeSource{usersErr: errors.New("boom")}
	n := &recordingNotifier{}
	p := NewPoller(src, n, time.UTC, 10*time.Millisecond, logging.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Run(ctx); err != nil {
		t.Errorf("Run should return nil on cancellation, got %v", err)
	}
}

func TestRunSendsOnMatchingMinute(t *testing.T) {
	src := &fakeSource{
		users:     []models.User{user(1, 100)},
		reminders: map[uint][]models.Reminder{1: {reminder(40, models.ReminderFloss, "21:00", nil, "")}},
	}
	n := &recordingNotifier{}
	p := NewPoller(src, n, time.UTC, time.Hour, logging.Nop())
	p.now = func() time.Time { return mustTime(t, "2024-06-01 21:00") }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for n.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("reminder was not sent")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestDBSource(t *testing.T) {
	db, err := database.OpenInMemory(t.Name())
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer database.Close(db)

	chat := int64(555)
	linked := models.User{TelegramID: &chat, IsActive: true}
	db.Create(&linked)
	db.Create(&models.User{FirstName: "web only", IsActive: true})
	db.Create(&models.Reminder{UserID: &linked.ID, ReminderType: models.ReminderFloss, Time: "21:00", IsActive: true})

	n := &recordingNotifier{}
	p := NewPoller(NewDBSource(db), n, time.UTC, time.Minute, logging.Nop())
	res, err := p.Scan(context.Background(), mustTime(t, "2024-06-01 21:00"))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Users != 1 || len(n.sent) != 1 || n.sent[0].ChatID != 555 {
		t.Errorf("unexpected scan over database: %+v %+v", res, n.sent)
	}
}

func TestHandleReminderScan(t *testing.T) {
	src := &fakeSource{
		users:     []models.User{user(1, 100)},
		reminders: map[uint][]models.Reminder{1: {reminder(50, models.ReminderEveningHygiene, "22:00", nil, "")}},
	}
	n := &recordingNotifier{}
	p := NewPoller(src, n, time.UTC, time.Minute, logging.Nop())

	handler := handleReminderScan(logging.Nop(), p, func() time.Time { return mustTime(t, "2024-06-01 22:00") })
	if err := handler(context.Background(), NewReminderScanTask()); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(n.sent) != 1 {
		t.Errorf("expected one send, got %d", len(n.sent))
	}

	failing := NewPoller(&fakeSource{usersErr: errors.New("down")}, n, time.UTC, time.Minute, logging.Nop())
	err := handleReminderScan(logging.Nop(), failing, time.Now)(context.Background(), NewReminderScanTask())
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("expected SkipRetry, got %v", err)
	}
}

func TestLoadLocation(t *testing.T) {
	if LoadLocation("", logging.Nop()) != time.UTC {
		t.Error("empty timezone should be UTC")
	}
	if LoadLocation("Not/AZone", logging.Nop()) != time.UTC {
		t.Error("invalid timezone should fall back to UTC")
	}
	if loc := LoadLocation("Europe/Moscow", logging.Nop()); loc.String() != "Europe/Moscow" {
		t.Errorf("expected Europe/Moscow, got %s", loc)
	}
}
