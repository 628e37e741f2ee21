package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prodentai/companion/internal/apierr"
	"github.com/prodentai/companion/internal/models"
	"gorm.io/gorm"
)

type registerRequest struct {
	Email      *string `json:"email" binding:"omitempty,email"`
	Password   string  `json:"password" binding:"omitempty,min=6,max=72"`
	TelegramID *int64  `json:"telegram_id" binding:"omitempty,gt=0"`
	Username   string  `json:"username" binding:"max=64"`
	FirstName  string  `json:"first_name" binding:"max=128"`
	LastName   string  `json:"last_name" binding:"max=128"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Response is a user together with a freshly issued access token.
type Response struct {
	models.User
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
}

// RegisterHandler creates an account. Telegram registrations are upserts keyed
// on telegram_id so the bot can call it on every /start; email registrations
// require a password and fail on duplicates.
func RegisterHandler(db *gorm.DB, issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, err)
			return
		}

		var (
			user   models.User
			status = http.StatusCreated
			err    error
		)
		switch {
		case req.Email != nil:
			user, err = registerWithEmail(db, req)
		case req.TelegramID != nil:
			user, status, err = upsertTelegramUser(db, req)
		default:
			err = apierr.BadRequest("either email and password or telegram_id is required")
		}
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		// Knowing a telegram id is not a credential for an account that has a password
		if req.Email == nil && user.PasswordHash != "" {
			c.JSON(status, Response{User: user})
			return
		}

		token, err := issuer.Issue(user.ID)
		if err != nil {
			apierr.Respond(c, apierr.Internal(err))
			return
		}
		c.JSON(status, Response{User: user, AccessToken: token, TokenType: "bearer"})
	}
}

func registerWithEmail(db *gorm.DB, req registerRequest) (models.User, error) {
	email := normalizeEmail(*req.Email)
	if req.Password == "" {
		return models.User{}, apierr.BadRequest("password: field required")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return models.User{}, apierr.Internal(err)
	}

	user := models.User{
		Email:        &email,
		PasswordHash: hash,
		TelegramID:   req.TelegramID,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func upsertTelegramUser(db *gorm.DB, req registerRequest) (models.User, int, error) {
	var user models.User
	err := db.Where("telegram_id = ?", *req.TelegramID).First(&user).Error
	if err == nil {
		// Refresh profile fields the bot sees on every contact
		updates := map[string]interface{}{}
		if req.Username != "" && req.Username != user.Username {
			updates["username"] = req.Username
			user.Username = req.Username
		}
		if req.FirstName != "" && req.FirstName != user.FirstName {
			updates["first_name"] = req.FirstName
			user.FirstName = req.FirstName
		}
		if req.LastName != "" && req.LastName != user.LastName {
			updates["last_name"] = req.LastName
			user.LastName = req.LastName
		}
		if len(updates) > 0 {
			if err := db.Model(&user).Updates(updates).Error; err != nil {
				return models.User{}, 0, err
			}
		}
		return user, http.StatusOK, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, 0, err
	}

	user = models.User{
		TelegramID: req.TelegramID,
		Username:   req.Username,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		IsActive:   true,
	}
	if err := db.Create(&user).Error; err != nil {
		return models.User{}, 0, err
	}
	return user, http.StatusCreated, nil
}

// LoginHandler exchanges email and password for an access token.
func LoginHandler(db *gorm.DB, issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, err)
			return
		}

		var user models.User
		err := db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			apierr.Respond(c, err)
			return
		}
		if err != nil || !CheckPassword(user.PasswordHash, req.Password) {
			apierr.Respond(c, apierr.Unauthorized("Incorrect email or password"))
			return
		}
		if !user.IsActive {
			apierr.Respond(c, apierr.BadRequest("Inactive user"))
			return
		}

		token, err := issuer.Issue(user.ID)
		if err != nil {
			apierr.Respond(c, apierr.Internal(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access_token": token,
			"token_type":   "bearer",
			"user_id":      user.ID,
		})
	}
}

// MeHandler returns the authenticated user.
func MeHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := CurrentUserID(c)

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
