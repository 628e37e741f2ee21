package streams

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/prodentai/companion/internal/logging"
	"github.com/prodentai/companion/internal/worker"
	"github.com/redis/go-redis/v9"
)

// Consumer delivers outbox notifications through a Notifier, acknowledging
// each message only after a successful send.
type Consumer struct {
	rdb          redis.UniversalClient
	groupName    string
	consumerName string
	log          *logging.Logger
	now          func() time.Time
}

// maxOutboxAge bounds how late a reminder may still be sent. Older messages
// are acknowledged and dropped.
const maxOutboxAge = time.Minute

// NewConsumer joins the bot-senders group, creating the stream and group if needed.
func NewConsumer(ctx context.Context, rdb redis.UniversalClient, consumerName string, log *logging.Logger) (*Consumer, error) {
	// A new group starts at "$" so a backlog from before the first start is skipped
	err := rdb.XGroupCreateMkStream(ctx, StreamReminderOutbox, GroupBotSenders, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}
	// Ignore BUSYGROUP error - group already exists

	return &Consumer{
		rdb:          rdb,
		groupName:    GroupBotSenders,
		consumerName: consumerName,
		log:          log,
		now:          time.Now,
	}, nil
}

// Run consumes until ctx is cancelled. Failed sends stay pending for
// inspection; they are not redelivered.
func (c *Consumer) Run(ctx context.Context, notifier worker.Notifier) error {
	c.log.Info("Reminder outbox consumer started", "group", c.groupName, "consumer", c.consumerName)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.groupName,
			Consumer: c.consumerName,
			Streams:  []string{StreamReminderOutbox, ">"},
			Count:    10,
			Block:    5000, // 5 seconds
		}).Result()

		if err == redis.Nil {
			// No messages available, continue loop
			continue
		}

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// Blocking reads return a timeout when no messages arrive
			// within the Block duration; this is normal, not an error.
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			c.log.Error("Failed to read from stream", "error", err)
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				c.handle(ctx, notifier, message)
			}
		}
	}
}

func (c *Consumer) handle(ctx context.Context, notifier worker.Notifier, message redis.XMessage) {
	n, err := decode(message)
	if err != nil {
		c.log.Error("Invalid outbox message", "message_id", message.ID, "error", err)
		// Undecodable messages can never succeed
		c.ack(ctx, message.ID)
		return
	}

	if at, ok := publishedAt(message); ok {
		if age := c.clock().Sub(at); age > maxOutboxAge {
			c.log.Warn("Dropping stale reminder", "message_id", message.ID, "reminder_id", n.ReminderID, "age", age.Round(time.Second).String())
			c.ack(ctx, message.ID)
			return
		}
	}

	if err := notifier.Notify(ctx, n); err != nil {
		c.log.Error("Failed to deliver reminder", "message_id", message.ID, "reminder_id", n.ReminderID, "error", err)
		// Message stays in PEL, don't ACK
		return
	}
	c.ack(ctx, message.ID)
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.rdb.XAck(ctx, StreamReminderOutbox, c.groupName, id).Err(); err != nil {
		c.log.Error("Failed to ACK message", "error", err, "message_id", id)
	}
}

func (c *Consumer) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

// publishedAt reads the unix timestamp written by the producer. Values come
// back from Redis as strings.
func publishedAt(message redis.XMessage) (time.Time, bool) {
	var sec int64
	switch v := message.Values[fieldPublishedAt].(type) {
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		sec = n
	case int64:
		sec = v
	default:
		return time.Time{}, false
	}
	return time.Unix(sec, 0), true
}

func decode(message redis.XMessage) (worker.Notification, error) {
	var n worker.Notification

	if v, ok := message.Values[fieldSchemaVersion].(string); ok && v != SchemaVersionV1 {
		return n, fmt.Errorf("unsupported schema version %q", v)
	}
	payload, ok := message.Values[fieldPayload].(string)
	if !ok {
		return n, errors.New("missing payload")
	}
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return n, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	if n.ChatID == 0 || n.Text == "" {
		return n, errors.New("notification has no chat or text")
	}
	return n, nil
}
