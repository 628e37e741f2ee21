package facts

import (
	"math/rand"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prodentai/companion/internal/apierr"
	"github.com/prodentai/companion/internal/database"
	"github.com/prodentai/companion/internal/llm"
	"github.com/prodentai/companion/internal/logging"
	"github.com/prodentai/companion/internal/models"
	"gorm.io/gorm"
)

// FAQ is a braces FAQ entry as returned by the API.
type FAQ struct {
	ID       uint   `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}

type bracesChatRequest struct {
	UserID  uint   `json:"user_id" binding:"required,gt=0"`
	Message string `json:"message" binding:"required,min=1,max=1000"`
}

// RandomHandler returns one random active fact, or a default when none are stored.
func RandomHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var stored []models.Fact
		if err := db.Where("is_active = ?", true).Find(&stored).Error; err != nil {
			apierr.Respond(c, err)
			return
		}
		if len(stored) == 0 {
			c.JSON(http.StatusOK, Defaults[rand.Intn(len(Defaults))])
			return
		}
		c.JSON(http.StatusOK, toItem(stored[rand.Intn(len(stored))]))
	}
}

// CategoryHandler lists the facts of one category, falling back to the
// built-in set when the table has none.
func CategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := ByCategory(db, c.Param("category"))
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// ByCategory loads active facts of category, or the defaults when there are none.
func ByCategory(db *gorm.DB, category string) ([]Item, error) {
	var stored []models.Fact
	if err := db.Where("category = ? AND is_active = ?", category, true).Order("id").Find(&stored).Error; err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return DefaultsFor(category), nil
	}
	items := make([]Item, 0, len(stored))
	for _, f := range stored {
		items = append(items, toItem(f))
	}
	return items, nil
}

// CategoriesHandler lists fact categories.
func CategoriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"categories": Categories})
	}
}

// BracesSearchHandler matches the query against questions, answers and keywords.
func BracesSearchHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("query"))
		if query == "" {
			apierr.Respond(c, apierr.BadRequest("query: field required"))
			return
		}

		var faqs []models.BracesFAQ
		if err := db.Where("is_active = ?", true).Order("id").Find(&faqs).Error; err != nil {
			apierr.Respond(c, err)
			return
		}

		out := []FAQ{}
		for _, f := range faqs {
			if Matches(f, query) {
				out = append(out, toFAQ(f))
			}
		}
		c.JSON(http.StatusOK, out)
	}
}

// Matches reports whether the query occurs in the question or answer, or
// whether any of the entry's keywords occurs in the query. Case-insensitive.
func Matches(f models.BracesFAQ, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(f.Question), q) || strings.Contains(strings.ToLower(f.Answer), q) {
		return true
	}
	for _, kw := range f.KeywordList() {
		if kw != "" && strings.Contains(q, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// BracesCategoryHandler lists the FAQ entries of one category.
func BracesCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var faqs []models.BracesFAQ
		if err := db.Where("category = ? AND is_active = ?", c.Param("category"), true).Order("id").Find(&faqs).Error; err != nil {
			apierr.Respond(c, err)
			return
		}
		out := make([]FAQ, 0, len(faqs))
		for _, f := range faqs {
			out = append(out, toFAQ(f))
		}
		c.JSON(http.StatusOK, out)
	}
}

// BracesCategoriesHandler lists braces FAQ categories.
func BracesCategoriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"categories": BracesCategories})
	}
}

// BracesChatHandler answers a free-form braces question through the gateway.
func BracesChatHandler(db *gorm.DB, gw *llm.Gateway, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bracesChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, err)
			return
		}
		if _, err := database.FindUser(db, req.UserID); err != nil {
			apierr.Respond(c, err)
			return
		}

		reply := gw.BracesReply(c.Request.Context(), req.Message)
		log.Info("Braces question answered", "user_id", req.UserID, "source", reply.Source)
		c.JSON(http.StatusOK, gin.H{"response": reply.Text})
	}
}

func toItem(f models.Fact) Item {
	return Item{ID: f.ID, Title: f.Title, Content: f.Content, Category: f.Category}
}

func toFAQ(f models.BracesFAQ) FAQ {
	return FAQ{ID: f.ID, Question: f.Question, Answer: f.Answer, Category: f.Category}
}
