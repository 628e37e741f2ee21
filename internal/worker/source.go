package worker

import (
	"context"

	"github.com/prodentai/companion/internal/models"
	"github.com/prodentai/companion/internal/reminders"
	"github.com/prodentai/companion/internal/users"
	"gorm.io/gorm"
)

// DBSource reads users and reminders straight from the database. Used when
// the poller runs in the same process as the API.
type DBSource struct {
	db *gorm.DB
}

func NewDBSource(db *gorm.DB) *DBSource {
	return &DBSource{db: db}
}

func (s *DBSource) TelegramUsers(ctx context.Context) ([]models.User, error) {
	return users.TelegramUsers(s.db.WithContext(ctx))
}

func (s *DBSource) UserReminders(ctx context.Context, userID uint) ([]models.Reminder, error) {
	return reminders.ForUser(s.db.WithContext(ctx), userID)
}
