package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Conversation modes
const (
	ModeIdle           = ""
	ModePsychology     = "psychology_chat"
	ModeAwaitVisitDate = "await_visit_date"
)

// State is the per-chat conversation state.
type State struct {
	UserID       uint   `json:"user_id,omitempty"`
	Mode         string `json:"mode,omitempty"`
	ReminderType string `json:"reminder_type,omitempty"`
	ReminderTime string `json:"reminder_time,omitempty"`
}

// StateStore keeps conversation state between updates.
type StateStore interface {
	Get(ctx context.Context, chatID int64) (State, error)
	Set(ctx context.Context, chatID int64, s State) error
}

// MemoryStore keeps state in process memory. State is lost on restart.
type MemoryStore struct {
	mu     sync.Mutex
	states map[int64]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[int64]State)}
}

func (m *MemoryStore) Get(_ context.Context, chatID int64) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[chatID], nil
}

func (m *MemoryStore) Set(_ context.Context, chatID int64, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[chatID] = s
	return nil
}

// RedisStore keeps state in Redis so it survives restarts and is shared
// between bot replicas.
type RedisStore struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewRedisStore creates a store whose entries expire after ttl of inactivity.
func NewRedisStore(rdb redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func stateKey(chatID int64) string {
	return fmt.Sprintf("bot:state:%d", chatID)
}

func (r *RedisStore) Get(ctx context.Context, chatID int64) (State, error) {
	var s State
	raw, err := r.rdb.Get(ctx, stateKey(chatID)).Bytes()
	if err == redis.Nil {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to load chat state: %w", err)
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, fmt.Errorf("failed to decode chat state: %w", err)
	}
	return s, nil
}

func (r *RedisStore) Set(ctx context.Context, chatID int64, s State) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode chat state: %w", err)
	}
	if err := r.rdb.Set(ctx, stateKey(chatID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save chat state: %w", err)
	}
	return nil
}
