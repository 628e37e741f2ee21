package users

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prodentai/companion/internal/apierr"
	"github.com/prodentai/companion/internal/auth"
	"github.com/prodentai/companion/internal/database"
	"github.com/prodentai/companion/internal/models"
	"github.com/prodentai/companion/internal/risks"
	"gorm.io/gorm"
)

type updateProfileRequest struct {
	Username  *string `json:"username" binding:"omitempty,max=64"`
	FirstName *string `json:"first_name" binding:"omitempty,max=128"`
	LastName  *string `json:"last_name" binding:"omitempty,max=128"`
}

type linkTelegramRequest struct {
	TelegramID int64 `json:"telegram_id" binding:"required,gt=0"`
}

// Stats summarises a user's activity across features.
type Stats struct {
	UserID           uint       `json:"user_id"`
	RiskAssessments  int64      `json:"risk_assessments"`
	Reminders        int64      `json:"reminders"`
	ActiveReminders  int64      `json:"active_reminders"`
	PsychSessions    int64      `json:"psychology_sessions"`
	NutritionLogs    int64      `json:"nutrition_logs"`
	LastAssessmentAt *time.Time `json:"last_assessment_at"`
	OverallRiskLevel *string    `json:"overall_risk_level"`
}

// ProfileHandler returns the caller's profile.
func ProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := resolveUser(c)
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		user, err := database.FindUser(db, userID)
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// UpdateProfileHandler changes the caller's display fields. Omitted fields are kept.
func UpdateProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := resolveUser(c)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		var req updateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, err)
			return
		}

		user, err := database.FindUser(db, userID)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		updates := map[string]interface{}{}
		if req.Username != nil {
			updates["username"] = *req.Username
			user.Username = *req.Username
		}
		if req.FirstName != nil {
			updates["first_name"] = *req.FirstName
			user.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			updates["last_name"] = *req.LastName
			user.LastName = *req.LastName
		}
		if len(updates) > 0 {
			if err := db.Model(user).Updates(updates).Error; err != nil {
				apierr.Respond(c, err)
				return
			}
		}
		c.JSON(http.StatusOK, user)
	}
}

// StatsHandler counts the caller's records and reports the latest risk level.
func StatsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := resolveUser(c)
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		if _, err := database.FindUser(db, userID); err != nil {
			apierr.Respond(c, err)
			return
		}

		stats, err := CollectStats(db, userID)
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// CollectStats gathers per-feature counts for userID.
func CollectStats(db *gorm.DB, userID uint) (*Stats, error) {
	stats := &Stats{UserID: userID}

	counts := []struct {
		model interface{}
		dst   *int64
		where string
	}{
		{&models.RiskAssessment{}, &stats.RiskAssessments, "user_id = ?"},
		{&models.Reminder{}, &stats.Reminders, "user_id = ?"},
		{&models.Reminder{}, &stats.ActiveReminders, "user_id = ? AND is_active = true"},
		{&models.PsychologySession{}, &stats.PsychSessions, "user_id = ?"},
		{&models.NutritionLog{}, &stats.NutritionLogs, "user_id = ?"},
	}
	for _, q := range counts {
		if err := db.Model(q.model).Where(q.where, userID).Count(q.dst).Error; err != nil {
			return nil, err
		}
	}

	latest, err := risks.Latest(db, userID)
	if err != nil {
		if _, ok := apierr.As(err); ok {
			return stats, nil
		}
		return nil, err
	}
	level := risks.OverallLevel(latest.Scores())
	stats.LastAssessmentAt = &latest.CreatedAt
	stats.OverallRiskLevel = &level
	return stats, nil
}

// LinkTelegramHandler attaches a Telegram chat id to an existing user.
func LinkTelegramHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := apierr.ParseID("user_id", c.Param("user_id"))
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		var req linkTelegramRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, err)
			return
		}

		user, err := database.FindUser(db, userID)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		var owner models.User
		err = db.Where("telegram_id = ?", req.TelegramID).First(&owner).Error
		switch {
		case err == nil && owner.ID != user.ID:
			apierr.Respond(c, apierr.BadRequest("Telegram account is already linked to another user"))
			return
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			apierr.Respond(c, err)
			return
		}

		if err := db.Model(user).Update("telegram_id", req.TelegramID).Error; err != nil {
			apierr.Respond(c, err)
			return
		}
		user.TelegramID = &req.TelegramID
		c.JSON(http.StatusOK, user)
	}
}

// CheckTelegramHandler reports whether a Telegram chat id belongs to a user.
func CheckTelegramHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
		if err != nil || telegramID <= 0 {
			apierr.Respond(c, apierr.BadRequest("telegram_id: must be a positive integer"))
			return
		}

		var user models.User
		err = db.Where("telegram_id = ?", telegramID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"exists": false, "user_id": nil})
			return
		}
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"exists": true, "user_id": user.ID})
	}
}

// TelegramUsersHandler lists active users that have a Telegram chat id.
// The reminder poller uses it when running against the HTTP API.
func TelegramUsersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := TelegramUsers(db)
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

// TelegramUsers loads every active user with a chat id.
func TelegramUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	err := db.Where("telegram_id IS NOT NULL AND is_active = true").Order("id").Find(&users).Error
	return users, err
}

// resolveUser prefers the bearer token and falls back to ?user_id= for the bot.
func resolveUser(c *gin.Context) (uint, error) {
	if id, ok := auth.CurrentUserID(c); ok {
		return id, nil
	}
	raw := c.Query("user_id")
	if raw == "" {
		return 0, apierr.Unauthorized("Not authenticated")
	}
	return apierr.ParseID("user_id", raw)
}
