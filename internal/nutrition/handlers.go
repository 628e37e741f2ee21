package nutrition

import (
	"fmt"
	"io"
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

// MaxImageBytes caps uploaded food photos.
const MaxImageBytes = 10 << 20

const imageDescription = "food in the image"

const historyLimit = 50

type analyzeRequest struct {
	UserID            uint     `json:"user_id"`
	FoodDescription   string   `json:"food_description" binding:"required,max=2000"`
	WeightGrams       *float64 `json:"weight_grams" binding:"omitempty,gt=0"`
	VolumeML          *float64 `json:"volume_ml" binding:"omitempty,gt=0"`
	AccompanyingFoods string   `json:"accompanying_foods" binding:"max=1000"`
}

// AnalysisResponse is returned by both analysis endpoints.
type AnalysisResponse struct {
	ID              uint                `json:"id"`
	AnalysisResult  llm.NutritionResult `json:"analysis_result"`
	Summary         string              `json:"summary"`
	SugarContent    float64             `json:"sugar_content"`
	AcidityLevel    float64             `json:"acidity_level"`
	HealthScore     float64             `json:"health_score"`
	Recommendations []string            `json:"recommendations"`
	WeightGrams     *float64            `json:"weight_grams,omitempty"`
	VolumeML        *float64            `json:"volume_ml,omitempty"`
}

// LogEntry is a stored analysis as listed in the history.
type LogEntry struct {
	ID              uint      `json:"id"`
	FoodDescription string    `json:"food_description"`
	Summary         string    `json:"summary"`
	Calories        float64   `json:"calories"`
	SugarContent    float64   `json:"sugar_content"`
	AcidityLevel    float64   `json:"acidity_level"`
	HealthScore     float64   `json:"health_score"`
	Recommendations []string  `json:"recommendations"`
	CreatedAt       time.Time `json:"created_at"`
}

// AnalyzeHandler analyses a text description of a meal and logs the result.
func AnalyzeHandler(db *gorm.DB, gw *llm.Gateway, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req analyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, err)
			return
		}

		userID := req.UserID
		if id, ok := auth.CurrentUserID(c); ok {
			userID = id
		}
		if err := ensureUser(db, userID); err != nil {
			apierr.Respond(c, err)
			return
		}

		description := strings.TrimSpace(req.FoodDescription)
		if extra := strings.TrimSpace(req.AccompanyingFoods); extra != "" {
			description += ". Accompanying foods: " + extra
		}

		result := gw.AnalyzeNutrition(c.Request.Context(), llm.NutritionRequest{
			Description: description,
			WeightGrams: req.WeightGrams,
			VolumeML:    req.VolumeML,
		})

		entry, err := store(db, userID, description, result)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		log.Info("Nutrition analysis stored", "log_id", entry.ID, "user_id", userID, "source", result.Source)
		resp := toResponse(entry.ID, result)
		resp.WeightGrams, resp.VolumeML = req.WeightGrams, req.VolumeML
		c.JSON(http.StatusOK, resp)
	}
}

// AnalyzeImageHandler analyses an uploaded food photo (multipart field "file").
// The user comes from the token or the user_id query/form value.
func AnalyzeImageHandler(db *gorm.DB, gw *llm.Gateway, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := formUserID(c)
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		if err := ensureUser(db, userID); err != nil {
			apierr.Respond(c, err)
			return
		}

		data, err := readUpload(c)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		description := strings.TrimSpace(c.PostForm("description"))
		result := gw.AnalyzeNutritionImage(c.Request.Context(), llm.NewImage(data), llm.NutritionRequest{Description: description})

		stored := description
		if stored == "" {
			stored = imageDescription
		}
		entry, err := store(db, userID, stored, result)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		log.Info("Image nutrition analysis stored", "log_id", entry.ID, "user_id", userID, "bytes", len(data), "source", result.Source)
		c.JSON(http.StatusOK, toResponse(entry.ID, result))
	}
}

// HistoryHandler lists a user's recent analyses, newest first.
func HistoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := apierr.ParseID("user_id", c.Param("user_id"))
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		var logs []models.NutritionLog
		if err := db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Limit(historyLimit).Find(&logs).Error; err != nil {
			apierr.Respond(c, err)
			return
		}

		out := make([]LogEntry, 0, len(logs))
		for _, l := range logs {
			out = append(out, LogEntry{
				ID:              l.ID,
				FoodDescription: l.FoodDescription,
				Summary:         l.Summary,
				Calories:        l.Calories,
				SugarContent:    l.SugarContent,
				AcidityLevel:    l.AcidityLevel,
				HealthScore:     l.HealthScore,
				Recommendations: l.RecommendationList(),
				CreatedAt:       l.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

func store(db *gorm.DB, userID uint, description string, result llm.NutritionResult) (*models.NutritionLog, error) {
	entry := models.NutritionLog{
		UserID:          &userID,
		FoodDescription: description,
		Summary:         result.Summary,
		Calories:        result.Calories,
		SugarContent:    result.SugarContent,
		AcidityLevel:    result.AcidityLevel,
		HealthScore:     result.HealthScore,
		Recommendations: models.JSONOf(result.Recommendations),
	}
	if err := db.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to store nutrition log: %w", err)
	}
	return &entry, nil
}

func toResponse(id uint, result llm.NutritionResult) AnalysisResponse {
	return AnalysisResponse{
		ID:              id,
		AnalysisResult:  result,
		Summary:         result.Summary,
		SugarContent:    result.SugarContent,
		AcidityLevel:    result.AcidityLevel,
		HealthScore:     result.HealthScore,
		Recommendations: result.Recommendations,
	}
}

func ensureUser(db *gorm.DB, userID uint) error {
	if userID == 0 {
		return apierr.BadRequest("user_id: field required")
	}
	_, err := database.FindUser(db, userID)
	return err
}

func formUserID(c *gin.Context) (uint, error) {
	if id, ok := auth.CurrentUserID(c); ok {
		return id, nil
	}
	raw := c.Query("user_id")
	if raw == "" {
		raw = c.PostForm("user_id")
	}
	if raw == "" {
		return 0, apierr.BadRequest("user_id: field required")
	}
	return apierr.ParseID("user_id", raw)
}

func readUpload(c *gin.Context) ([]byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, apierr.BadRequest("file: field required")
	}
	if header.Size > MaxImageBytes {
		return nil, apierr.BadRequest("file: image must be at most %d MB", MaxImageBytes>>20)
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, apierr.BadRequest("file: image is empty")
	}
	if len(data) > MaxImageBytes {
		return nil, apierr.BadRequest("file: image must be at most %d MB", MaxImageBytes>>20)
	}
	return data, nil
}
