package streams

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prodentai/companion/internal/worker"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient opens a client for redisURL.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	// Read timeout must exceed the XReadGroup Block duration (5s)
	// to avoid spurious i/o timeout errors on idle streams.
	opts.ReadTimeout = 10 * time.Second

	return redis.NewClient(opts), nil
}

// Publisher appends reminder notifications to the outbox stream. It is the
// poller's Notifier when delivery happens in a separate bot process.
type Publisher struct {
	rdb redis.UniversalClient
}

// NewPublisher creates a new Publisher instance
func NewPublisher(rdb redis.UniversalClient) *Publisher {
	return &Publisher{rdb: rdb}
}

// Publish adds n to the outbox and returns the stream message id.
func (p *Publisher) Publish(ctx context.Context, n worker.Notification) (string, error) {
	values, err := encode(n, time.Now())
	if err != nil {
		return "", err
	}

	result := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamReminderOutbox,
		MaxLen: 10000,
		Approx: true,
		ID:     "*", // auto-generate ID
		Values: values,
	})

	if result.Err() != nil {
		return "", fmt.Errorf("failed to publish to stream: %w", result.Err())
	}

	return result.Val(), nil
}

// Notify implements worker.Notifier.
func (p *Publisher) Notify(ctx context.Context, n worker.Notification) error {
	_, err := p.Publish(ctx, n)
	return err
}

func encode(n worker.Notification, now time.Time) (map[string]interface{}, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}
	return map[string]interface{}{
		fieldPayload:       string(payload),
		fieldPublishedAt:   now.Unix(),
		fieldSchemaVersion: SchemaVersionV1,
	}, nil
}
