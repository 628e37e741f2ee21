package models

import (
	"github.com/prodentai/companion/internal/crypto"
	"gorm.io/gorm"
)

var encryptor *crypto.FieldEncryptor

// InitEncryption enables at-rest encryption of chat transcripts.
// Without it sessions are stored in plaintext.
func InitEncryption(encryptionKey string) error {
	enc, err := crypto.NewFieldEncryptor(encryptionKey)
	if err != nil {
		return err
	}
	encryptor = enc
	return nil
}

// DisableEncryption resets the package encryptor. Used in tests.
func DisableEncryption() {
	encryptor = nil
}

// PsychologySession is one chat turn with the support assistant.
type PsychologySession struct {
	Base
	UserID         *uint    `gorm:"index" json:"user_id"`
	SessionType    string   `gorm:"not null;default:'general'" json:"session_type"`
	UserMessage    string   `gorm:"type:text" json:"user_message"`
	AIResponse     string   `gorm:"column:ai_response;type:text" json:"ai_response"`
	SentimentScore *float64 `json:"sentiment_score"`

	plainUser     string
	plainResponse string
}

// BeforeSave seals the transcript fields.
func (s *PsychologySession) BeforeSave(tx *gorm.DB) error {
	if encryptor == nil {
		return nil
	}
	s.plainUser, s.plainResponse = s.UserMessage, s.AIResponse

	sealed, err := encryptor.Seal(s.UserMessage)
	if err != nil {
		return err
	}
	s.UserMessage = sealed

	if sealed, err = encryptor.Seal(s.AIResponse); err != nil {
		return err
	}
	s.AIResponse = sealed
	return nil
}

// AfterSave restores plaintext on the in-memory struct so callers can keep using it.
func (s *PsychologySession) AfterSave(tx *gorm.DB) error {
	if encryptor == nil {
		return nil
	}
	s.UserMessage, s.AIResponse = s.plainUser, s.plainResponse
	return nil
}

// AfterFind opens the transcript fields.
func (s *PsychologySession) AfterFind(tx *gorm.DB) error {
	if encryptor == nil {
		return nil
	}
	var err error
	if s.UserMessage, err = encryptor.Open(s.UserMessage); err != nil {
		return err
	}
	s.AIResponse, err = encryptor.Open(s.AIResponse)
	return err
}
