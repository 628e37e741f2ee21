package database

import (
	"fmt"

	"github.com/prodentai/companion/internal/logging"
	"github.com/prodentai/companion/internal/models"
	"gorm.io/gorm"
)

// SeedReferenceData inserts the braces FAQ entries when the table is empty.
// Idempotent: skips if any entry already exists.
func SeedReferenceData(db *gorm.DB, log *logging.Logger, faqs []models.BracesFAQ) error {
	var count int64
	if err := db.Model(&models.BracesFAQ{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count braces FAQ entries: %w", err)
	}
	if count > 0 {
		log.Debug("Braces FAQ already seeded, skipping", "entries", count)
		return nil
	}
	if len(faqs) == 0 {
		return nil
	}

	// Copy so callers' defaults never pick up generated IDs
	rows := make([]models.BracesFAQ, len(faqs))
	copy(rows, faqs)
	for i := range rows {
		rows[i].ID = 0
	}

	if err := db.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to seed braces FAQ: %w", err)
	}
	log.Info("Seeded reference data", "braces_faq", len(rows))
	return nil
}

// SeedDevData creates a demo user with a couple of reminders for local development.
// Idempotent: skips if the demo user already exists.
func SeedDevData(db *gorm.DB, log *logging.Logger) error {
	email := "dev@prodentai.local"

	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		log.Debug("Seed data already exists, skipping")
		return nil
	}

	user := models.User{
		Email:     &email,
		Username:  "dev",
		FirstName: "Dev",
		LastName:  "User",
		IsActive:  true,
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create dev user: %w", err)
	}

	reminders := []models.Reminder{
		{UserID: &user.ID, ReminderType: models.ReminderMorningHygiene, Time: "08:00", Message: "Time to brush your teeth!", IsActive: true},
		{UserID: &user.ID, ReminderType: models.ReminderEveningHygiene, Time: "22:00", Message: "Brush your teeth before bed!", IsActive: true},
	}
	if err := db.Create(&reminders).Error; err != nil {
		return fmt.Errorf("failed to create dev reminders: %w", err)
	}

	log.Info("Seeded dev data", "users", 1, "reminders", len(reminders))
	return nil
}
