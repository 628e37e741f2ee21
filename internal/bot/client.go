package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prodentai/companion/internal/facts"
	"github.com/prodentai/companion/internal/models"
	"github.com/prodentai/companion/internal/psychology"
)

// BackendClient talks to the HTTP API on behalf of the bot. It also serves
// as the reminder poller's source when the bot runs without a database.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewBackendClient creates a client for the API at baseURL.
func NewBackendClient(baseURL string, timeout time.Duration) *BackendClient {
	return &BackendClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// TelegramProfile is what the bot knows about a chat's user.
type TelegramProfile struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

// StatusError is returned for any non-2xx API response.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Detail)
}

// Register creates or refreshes the user behind a Telegram account and
// returns its id.
func (c *BackendClient) Register(ctx context.Context, p TelegramProfile) (uint, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", p, &user); err != nil {
		return 0, err
	}
	return user.ID, nil
}

// RandomFact fetches one hygiene fact.
func (c *BackendClient) RandomFact(ctx context.Context) (facts.Item, error) {
	var item facts.Item
	err := c.do(ctx, http.MethodGet, "/api/facts/random", nil, &item)
	return item, err
}

// PsychologyTips fetches the anxiety-reduction tips.
func (c *BackendClient) PsychologyTips(ctx context.Context) ([]psychology.Tip, error) {
	var out struct {
		Tips []psychology.Tip `json:"tips"`
	}
	err := c.do(ctx, http.MethodGet, "/api/psychology/tips", nil, &out)
	return out.Tips, err
}

// PsychologyChat sends one chat turn and returns the assistant's answer.
func (c *BackendClient) PsychologyChat(ctx context.Context, userID uint, message string) (string, error) {
	req := map[string]interface{}{
		"user_id":      userID,
		"message":      message,
		"session_type": "general",
	}
	var out struct {
		AIResponse string `json:"ai_response"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/psychology/chat", req, &out); err != nil {
		return "", err
	}
	return out.AIResponse, nil
}

// CreateReminder stores a reminder; an empty time or message takes the
// category default.
func (c *BackendClient) CreateReminder(ctx context.Context, userID uint, reminderType, at string, date *string) (models.Reminder, error) {
	req := map[string]interface{}{
		"user_id":       userID,
		"reminder_type": reminderType,
	}
	if at != "" {
		req["time"] = at
	}
	if date != nil {
		req["date"] = *date
	}
	var r models.Reminder
	err := c.do(ctx, http.MethodPost, "/api/reminders/create", req, &r)
	return r, err
}

// UserReminders lists a user's reminders, newest first.
func (c *BackendClient) UserReminders(ctx context.Context, userID uint) ([]models.Reminder, error) {
	var out []models.Reminder
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/reminders/user/%d", userID), nil, &out)
	return out, err
}

// SetReminderActive switches a reminder on or off.
func (c *BackendClient) SetReminderActive(ctx context.Context, id uint, active bool) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/reminders/toggle/%d", id), map[string]bool{"is_active": active}, nil)
}

// DeleteReminder removes a reminder.
func (c *BackendClient) DeleteReminder(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/reminders/%d", id), nil, nil)
}

// TelegramUsers lists every active user with a linked chat.
func (c *BackendClient) TelegramUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := c.do(ctx, http.MethodGet, "/api/users/all-telegram-users", nil, &out)
	return out, err
}

func (c *BackendClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var envelope struct {
			Detail string `json:"detail"`
		}
		detail := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &envelope) == nil && envelope.Detail != "" {
			detail = envelope.Detail
		}
		return &StatusError{StatusCode: resp.StatusCode, Detail: detail}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
