package reminders

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prodentai/companion/internal/apierr"
	"github.com/prodentai/companion/internal/auth"
	"github.com/prodentai/companion/internal/database"
	"github.com/prodentai/companion/internal/logging"
	"github.com/prodentai/companion/internal/models"
	"gorm.io/gorm"
)

type createRequest struct {
	UserID       uint    `json:"user_id"`
	ReminderType string  `json:"reminder_type" binding:"required,oneof=morning_hygiene evening_hygiene dental_visit floss"`
	Time         string  `json:"time" binding:"omitempty,hhmm"`
	Date         *string `json:"date" binding:"omitempty,isodate"`
	Message      string  `json:"message" binding:"max=500"`
}

type toggleRequest struct {
	IsActive *bool `json:"is_active"`
}

// CreateHandler stores a reminder. Missing time and message are filled from
// the category defaults.
func CreateHandler(db *gorm.DB, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, err)
			return
		}

		userID := req.UserID
		if id, ok := auth.CurrentUserID(c); ok {
			userID = id
		}
		if userID == 0 {
			apierr.Respond(c, apierr.BadRequest("user_id: field required"))
			return
		}
		if _, err := database.FindUser(db, userID); err != nil {
			apierr.Respond(c, err)
			return
		}

		category, _ := Lookup(req.ReminderType)
		reminder := models.Reminder{
			UserID:       &userID,
			ReminderType: req.ReminderType,
			Time:         req.Time,
			Message:      req.Message,
			IsActive:     true,
		}
		if reminder.Time == "" {
			reminder.Time = category.DefaultTime
		}
		if reminder.Message == "" {
			reminder.Message = category.DefaultMessage
		}
		if req.Date != nil && *req.Date != "" {
			reminder.Date = req.Date
		}

		if err := db.Create(&reminder).Error; err != nil {
			apierr.Respond(c, err)
			return
		}

		log.Info("Reminder created", "reminder_id", reminder.ID, "user_id", userID, "type", reminder.ReminderType, "time", reminder.Time)
		c.JSON(http.StatusOK, reminder)
	}
}

// UserRemindersHandler lists a user's reminders, newest first.
func UserRemindersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := apierr.ParseID("user_id", c.Param("user_id"))
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		reminders, err := ForUser(db, userID)
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, reminders)
	}
}

// ForUser loads userID's reminders ordered by creation time, newest first.
func ForUser(db *gorm.DB, userID uint) ([]models.Reminder, error) {
	reminders := []models.Reminder{}
	err := db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&reminders).Error
	return reminders, err
}

// ToggleHandler sets is_active when given, otherwise flips it.
func ToggleHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		reminder, err := findReminder(db, c.Param("id"))
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		// An empty body means flip
		var req toggleRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			apierr.Respond(c, err)
			return
		}

		active := !reminder.IsActive
		if req.IsActive != nil {
			active = *req.IsActive
		}
		if err := db.Model(reminder).Update("is_active", active).Error; err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":        reminder.ID,
			"is_active": active,
			"message":   "Reminder status updated",
		})
	}
}

// DeleteHandler removes a reminder.
func DeleteHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		reminder, err := findReminder(db, c.Param("id"))
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		if err := db.Delete(reminder).Error; err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Reminder deleted successfully"})
	}
}

// TypesHandler lists the reminder categories.
func TypesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"types": Categories})
	}
}

func findReminder(db *gorm.DB, rawID string) (*models.Reminder, error) {
	id, err := apierr.ParseID("id", rawID)
	if err != nil {
		return nil, err
	}
	var reminder models.Reminder
	if err := db.First(&reminder, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("Reminder not found")
		}
		return nil, err
	}
	return &reminder, nil
}
