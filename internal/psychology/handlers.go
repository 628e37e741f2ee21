package psychology

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prodentai/companion/internal/apierr"
	"github.com/prodentai/companion/internal/auth"
	"github.com/prodentai/companion/internal/database"
	"github.com/prodentai/companion/internal/llm"
	"github.com/prodentai/companion/internal/logging"
	"github.com/prodentai/companion/internal/models"
	"gorm.io/gorm"
)

const historyLimit = 10

// Message is one chat line.
type Message struct {
	Role    string `json:"role" binding:"required,oneof=user assistant system"`
	Content string `json:"content" binding:"max=4000"`
}

type chatRequest struct {
	UserID      uint      `json:"user_id"`
	Message     string    `json:"message" binding:"max=4000"`
	Messages    []Message `json:"messages" binding:"omitempty,dive"`
	SessionType string    `json:"session_type" binding:"omitempty,max=32"`
}

// userText is the explicit message, or the content of the last message.
func (r chatRequest) userText() string {
	if msg := strings.TrimSpace(r.Message); msg != "" {
		return msg
	}
	if n := len(r.Messages); n > 0 {
		return strings.TrimSpace(r.Messages[n-1].Content)
	}
	return ""
}

// Tip is a static anxiety-reduction tip.
type Tip struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

var Tips = []Tip{
	{"Deep breathing", "Practise deep breathing before your visit: breathe in for 4 counts, hold for 4, breathe out for 4. It lowers anxiety."},
	{"Music and distraction", "Listen to your favourite music during the procedure. It helps you switch off and relax."},
	{"Talk openly", "Tell your dentist about your fears. They can adapt their approach and explain every step."},
	{"Start small", "Begin with a simple check-up or cleaning to get used to the setting."},
	{"Visualisation", "Picture yourself somewhere calm during the procedure. Visualisation helps you relax."},
	{"Stop signal", "Agree on a signal with your dentist that pauses the procedure. It gives you a sense of control."},
}

// HistoryEntry is a stored chat turn.
type HistoryEntry struct {
	ID          uint      `json:"id"`
	SessionType string    `json:"session_type"`
	UserMessage string    `json:"user_message"`
	AIResponse  string    `json:"ai_response"`
	Messages    []Message `json:"messages"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChatHandler answers the user's latest message and stores the turn.
func ChatHandler(db *gorm.DB, gw *llm.Gateway, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, err)
			return
		}

		userID := req.UserID
		if id, ok := auth.CurrentUserID(c); ok {
			userID = id
		}
		if userID == 0 {
			apierr.Respond(c, apierr.Unauthorized("Not authenticated"))
			return
		}
		if _, err := database.FindUser(db, userID); err != nil {
			apierr.Respond(c, err)
			return
		}

		text := req.userText()
		if text == "" {
			apierr.Respond(c, apierr.BadRequest("message: field required"))
			return
		}

		reply := gw.PsychologyReply(c.Request.Context(), text)

		session := models.PsychologySession{
			UserID:      &userID,
			SessionType: req.SessionType,
			UserMessage: text,
			AIResponse:  reply.Text,
		}
		if session.SessionType == "" {
			session.SessionType = "general"
		}
		if err := db.Create(&session).Error; err != nil {
			apierr.Respond(c, err)
			return
		}

		log.Info("Psychology reply sent", "session_id", session.ID, "user_id", userID, "source", reply.Source)
		c.JSON(http.StatusOK, gin.H{
			"response":    reply.Text,
			"ai_response": reply.Text,
			"session_id":  session.ID,
		})
	}
}

// HistoryHandler returns the caller's last chat turns, newest first.
func HistoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.CurrentUserID(c)
		if !ok {
			raw := c.Query("user_id")
			if raw == "" {
				apierr.Respond(c, apierr.Unauthorized("Not authenticated"))
				return
			}
			id, err := apierr.ParseID("user_id", raw)
			if err != nil {
				apierr.Respond(c, err)
				return
			}
			userID = id
		}

		var sessions []models.PsychologySession
		if err := db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Limit(historyLimit).Find(&sessions).Error; err != nil {
			apierr.Respond(c, err)
			return
		}

		out := make([]HistoryEntry, 0, len(sessions))
		for _, s := range sessions {
			out = append(out, HistoryEntry{
				ID:          s.ID,
				SessionType: s.SessionType,
				UserMessage: s.UserMessage,
				AIResponse:  s.AIResponse,
				Messages: []Message{
					{Role: "user", Content: s.UserMessage},
					{Role: "assistant", Content: s.AIResponse},
				},
				CreatedAt: s.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

// TipsHandler lists anxiety-reduction tips.
func TipsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tips": Tips})
	}
}
