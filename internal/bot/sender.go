package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prodentai/companion/internal/worker"
)

// Sender delivers reminder notifications as plain chat messages.
type Sender struct {
	api API
}

func NewSender(api API) *Sender {
	return &Sender{api: api}
}

// Notify implements worker.Notifier.
func (s *Sender) Notify(_ context.Context, n worker.Notification) error {
	msg := tgbotapi.NewMessage(n.ChatID, n.Text)
	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder %d to chat %d: %w", n.ReminderID, n.ChatID, err)
	}
	return nil
}
