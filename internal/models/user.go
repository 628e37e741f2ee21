package models

// User is created on first bot contact or on email registration and is only
// ever soft-deleted. Telegram-only users have no email or password.
type User struct {
	Base
	TelegramID   *int64  `gorm:"uniqueIndex" json:"telegram_id"`
	Email        *string `gorm:"uniqueIndex" json:"email"`
	PasswordHash string  `gorm:"column:hashed_password" json:"-"`
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	IsActive     bool    `gorm:"not null;default:true" json:"is_active"`
}

// DisplayName returns the friendliest available name for greetings.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	default:
		return "friend"
	}
}
