package reminders

import (
	"time"

	"github.com/prodentai/companion/internal/models"
)

// Category describes a reminder type offered to users.
type Category struct {
	Type           string `json:"type"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	DefaultTime    string `json:"default_time"`
	DefaultMessage string `json:"-"`
	NeedsDate      bool   `json:"needs_date"`
}

// Categories lists reminder types in display order.
var Categories = []Category{
	{
		Type:           models.ReminderMorningHygiene,
		Name:           "Morning hygiene",
		Description:    "Reminder to brush your teeth in the morning",
		DefaultTime:    "08:00",
		DefaultMessage: "Good morning! Time to freshen up your smile 😊",
	},
	{
		Type:           models.ReminderEveningHygiene,
		Name:           "Evening hygiene",
		Description:    "Reminder to brush your teeth in the evening",
		DefaultTime:    "22:00",
		DefaultMessage: "Evening hygiene time! Don't forget to brush your teeth 🌙",
	},
	{
		Type:           models.ReminderDentalVisit,
		Name:           "Dental visit",
		Description:    "Reminder about a scheduled dentist appointment",
		DefaultTime:    "10:00",
		DefaultMessage: "Reminder about your dentist appointment 🦷",
		NeedsDate:      true,
	},
	{
		Type:           models.ReminderFloss,
		Name:           "Flossing",
		Description:    "Reminder to clean between your teeth",
		DefaultTime:    "21:00",
		DefaultMessage: "Time to floss! Your gums will thank you 🧵",
	},
}

// FallbackMessage is sent for reminders stored without any message.
const FallbackMessage = "Dental hygiene reminder 🦷"

// Lookup finds a category by type.
func Lookup(reminderType string) (Category, bool) {
	for _, c := range Categories {
		if c.Type == reminderType {
			return c, true
		}
	}
	return Category{}, false
}

// DefaultMessage returns the category message for reminderType, or the
// generic reminder text for unknown types.
func DefaultMessage(reminderType string) string {
	if c, ok := Lookup(reminderType); ok {
		return c.DefaultMessage
	}
	return FallbackMessage
}

// Due reports whether r should fire at now: it must be active, its "HH:MM"
// must equal now's wall-clock minute and, when dated, its date must be today.
func Due(r models.Reminder, now time.Time) bool {
	if !r.IsActive || r.Time != now.Format("15:04") {
		return false
	}
	if r.Date != nil && *r.Date != "" {
		return *r.Date == now.Format("2006-01-02")
	}
	return true
}

// Text returns the message to deliver for r.
func Text(r models.Reminder) string {
	if r.Message != "" {
		return r.Message
	}
	return DefaultMessage(r.ReminderType)
}
