package database

import (
	"errors"

	"github.com/prodentai/companion/internal/apierr"
	"github.com/prodentai/companion/internal/models"
	"gorm.io/gorm"
)

// FindUser loads a user by id, returning a 404 error when it does not exist.
func FindUser(db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("User not found")
		}
		return nil, err
	}
	return &user, nil
}
