package models

import "gorm.io/datatypes"

// Fact is a short piece of dental trivia shown by the bot.
type Fact struct {
	Base
	Title    string `gorm:"not null" json:"title"`
	Content  string `gorm:"type:text;not null" json:"content"`
	Category string `gorm:"not null;index" json:"category"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
}

// BracesFAQ is a curated question/answer pair for orthodontic patients.
type BracesFAQ struct {
	Base
	Question string         `gorm:"not null" json:"question"`
	Answer   string         `gorm:"type:text;not null" json:"answer"`
	Category string         `gorm:"not null;index" json:"category"`
	Keywords datatypes.JSON `json:"keywords"`
	IsActive bool           `gorm:"not null;default:true" json:"is_active"`
}

func (BracesFAQ) TableName() string { return "braces_faqs" }

// KeywordList decodes Keywords.
func (b *BracesFAQ) KeywordList() []string {
	return decodeStrings(b.Keywords)
}
