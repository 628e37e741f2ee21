package models

import (
	"time"

	"gorm.io/gorm"
)

// Base mirrors gorm.Model with JSON field names for API responses.
type Base struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&RiskAssessment{},
		&Reminder{},
		&PsychologySession{},
		&NutritionLog{},
		&Fact{},
		&BracesFAQ{},
	}
}
