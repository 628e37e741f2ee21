package risks

import (
	"errors"
	"net/http"
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

type assessRequest struct {
	UserID        uint                   `json:"user_id"`
	Questionnaire map[string]interface{} `json:"questionnaire" binding:"required"`
}

// AssessmentResponse is a stored assessment with its bucketed risk map.
type AssessmentResponse struct {
	ID              uint               `json:"id"`
	UserID          *uint              `json:"user_id"`
	RiskScores      map[string]float64 `json:"risk_scores"`
	RiskMap         map[string]string  `json:"risk_map"`
	Recommendations []string           `json:"recommendations"`
	CreatedAt       time.Time          `json:"created_at"`
}

func toResponse(a models.RiskAssessment) AssessmentResponse {
	scores := a.Scores()
	return AssessmentResponse{
		ID:              a.ID,
		UserID:          a.UserID,
		RiskScores:      scores,
		RiskMap:         RiskMap(scores),
		Recommendations: a.RecommendationList(),
		CreatedAt:       a.CreatedAt,
	}
}

// AssessHandler scores a questionnaire through the gateway and stores the result.
// The user comes from the bearer token, or from user_id for bot callers.
func AssessHandler(db *gorm.DB, gw *llm.Gateway, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req assessRequest
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

		result := gw.AssessRisks(c.Request.Context(), req.Questionnaire)

		assessment := models.RiskAssessment{
			UserID:          &userID,
			AssessmentData:  models.JSONOf(req.Questionnaire),
			RiskScores:      models.JSONOf(result.Scores),
			Recommendations: models.JSONOf(result.Recommendations),
		}
		if err := db.Create(&assessment).Error; err != nil {
			apierr.Respond(c, err)
			return
		}

		log.Info("Risk assessment stored", "assessment_id", assessment.ID, "user_id", userID, "source", result.Source)
		c.JSON(http.StatusOK, toResponse(assessment))
	}
}

// HistoryHandler lists a user's assessments, newest first.
func HistoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := apierr.ParseID("user_id", c.Param("user_id"))
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		var assessments []models.RiskAssessment
		if err := db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&assessments).Error; err != nil {
			apierr.Respond(c, err)
			return
		}

		out := make([]AssessmentResponse, 0, len(assessments))
		for _, a := range assessments {
			out = append(out, toResponse(a))
		}
		c.JSON(http.StatusOK, out)
	}
}

// LatestHandler returns the most recent assessment or 404.
func LatestHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := apierr.ParseID("user_id", c.Param("user_id"))
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		latest, err := Latest(db, userID)
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, toResponse(*latest))
	}
}

// Latest loads the newest assessment for userID.
func Latest(db *gorm.DB, userID uint) (*models.RiskAssessment, error) {
	var a models.RiskAssessment
	err := db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("No assessments found")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
