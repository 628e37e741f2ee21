package models

// Reminder categories
const (
	ReminderMorningHygiene = "morning_hygiene"
	ReminderEveningHygiene = "evening_hygiene"
	ReminderDentalVisit    = "dental_visit"
	ReminderFloss          = "floss"
)

// Reminder fires when its "HH:MM" time matches the poller's wall clock and,
// if Date is set, the current "YYYY-MM-DD" date.
type Reminder struct {
	Base
	UserID       *uint   `gorm:"index" json:"user_id"`
	ReminderType string  `gorm:"not null;index" json:"reminder_type"`
	Time         string  `gorm:"column:time;size:5;not null" json:"time"`
	Date         *string `gorm:"size:10" json:"date"`
	Message      string  `gorm:"type:text" json:"message"`
	IsActive     bool    `gorm:"not null;default:true" json:"is_active"`
}
