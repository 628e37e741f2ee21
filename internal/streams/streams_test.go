package streams

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/prodentai/companion/internal/logging"
	"github.com/prodentai/companion/internal/worker"
	"github.com/redis/go-redis/v9"
)

func TestEncodeDecode(t *testing.T) {
	n := worker.Notification{ChatID: 42, UserID: 7, ReminderID: 3, Type: "floss", Text: "Time to floss!"}
	values, err := encode(n, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if values[fieldSchemaVersion] != SchemaVersionV1 || values[fieldPublishedAt] != int64(1700000000) {
		t.Errorf("unexpected metadata: %v", values)
	}

	// Redis returns every field as a string
	msg := redis.XMessage{ID: "1-0", Values: map[string]interface{}{
		fieldPayload:       values[fieldPayload],
		fieldSchemaVersion: SchemaVersionV1,
		fieldPublishedAt:   "1700000000",
	}}
	got, err := decode(msg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != n {
		t.Errorf("expected %+v, got %+v", n, got)
	}
}

func TestDecodeRejectsBadMessages(t *testing.T) {
	cases := map[string]map[string]interface{}{
		"missing payload": {fieldSchemaVersion: SchemaVersionV1},
		"bad json":        {fieldPayload: "{not json"},
		"future schema":   {fieldPayload: `{"chat_id":1,"text":"x"}`, fieldSchemaVersion: "v2"},
		"no chat":         {fieldPayload: `{"text":"x"}`},
	}
	for name, values := range cases {
		if _, err := decode(redis.XMessage{ID: "1-0", Values: values}); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

type stubNotifier struct {
	err  error
	sent []worker.Notification
}

func (s *stubNotifier) Notify(ctx context.Context, n worker.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

func TestPublisherImplementsNotifier(t *testing.T) {
	var _ worker.Notifier = (*Publisher)(nil)
}

func TestHandleDeliversDecodedMessage(t *testing.T) {
	// An unreachable client: ACK failures are logged, delivery still happens
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	c := &Consumer{rdb: rdb, groupName: GroupBotSenders, consumerName: "test", log: logging.Nop()}

	values, _ := encode(worker.Notification{ChatID: 9, Text: "Brush!"}, time.Now())
	n := &stubNotifier{}
	c.handle(context.Background(), n, redis.XMessage{ID: "1-0", Values: values})
	if len(n.sent) != 1 || n.sent[0].ChatID != 9 {
		t.Errorf("expected delivery, got %+v", n.sent)
	}

	failing := &stubNotifier{err: errors.New("blocked by user")}
	c.handle(context.Background(), failing, redis.XMessage{ID: "2-0", Values: values})
	if len(failing.sent) != 0 {
		t.Error("failed delivery should not be recorded")
	}
}

func TestHandleDropsStaleMessage(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	c := &Consumer{rdb: rdb, groupName: GroupBotSenders, consumerName: "test", log: logging.Nop(), now: func() time.Time { return now }}

	values, _ := encode(worker.Notification{ChatID: 9, Text: "Brush!"}, now.Add(-2*time.Hour))
	// As read back from Redis
	values[fieldPublishedAt] = strconv.FormatInt(now.Add(-2*time.Hour).Unix(), 10)
	n := &stubNotifier{}
	c.handle(context.Background(), n, redis.XMessage{ID: "1-0", Values: values})
	if len(n.sent) != 0 {
		t.Errorf("stale reminder should be dropped, got %+v", n.sent)
	}

	fresh, _ := encode(worker.Notification{ChatID: 9, Text: "Brush!"}, now.Add(-10*time.Second))
	c.handle(context.Background(), n, redis.XMessage{ID: "2-0", Values: fresh})
	if len(n.sent) != 1 {
		t.Errorf("fresh reminder should be delivered, got %+v", n.sent)
	}
}
