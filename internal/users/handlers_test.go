package users

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prodentai/companion/internal/auth"
	"github.com/prodentai/companion/internal/database"
	"github.com/prodentai/companion/internal/models"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB, *auth.TokenIssuer) {
	t.Helper()
	db, err := database.OpenInMemory(t.Name())
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	r := gin.New()
	g := r.Group("/api/users", auth.OptionalAuth(issuer))
	g.GET("/profile", ProfileHandler(db))
	g.PUT("/profile", UpdateProfileHandler(db))
	g.GET("/stats", StatsHandler(db))
	g.POST("/link-telegram/:user_id", LinkTelegramHandler(db))
	g.GET("/check-telegram/:telegram_id", CheckTelegramHandler(db))
	g.GET("/all-telegram-users", TelegramUsersHandler(db))
	return r, db, issuer
}

func doJSON(r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newUser(t *testing.T, db *gorm.DB, telegramID int64) models.User {
	t.Helper()
	u := models.User{FirstName: "Olga", IsActive: true}
	if telegramID != 0 {
		u.TelegramID = &telegramID
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestProfileRequiresIdentity(t *testing.T) {
	r, _, _ := setupRouter(t)
	if w := doJSON(r, http.MethodGet, "/api/users/profile", nil, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestProfileUpdate(t *testing.T) {
	r, db, issuer := setupRouter(t)
	u := newUser(t, db, 0)
	token, _ := issuer.Issue(u.ID)

	w := doJSON(r, http.MethodPut, "/api/users/profile", map[string]string{"last_name": "Petrova"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var got models.User
	db.First(&got, u.ID)
	if got.LastName != "Petrova" || got.FirstName != "Olga" {
		t.Errorf("unexpected profile after update: %+v", got)
	}

	w = doJSON(r, http.MethodGet, fmt.Sprintf("/api/users/profile?user_id=%d", u.ID), nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("query user_id lookup: expected 200, got %d", w.Code)
	}
}

func TestStats(t *testing.T) {
	r, db, _ := setupRouter(t)
	u := newUser(t, db, 0)

	db.Create(&models.Reminder{UserID: &u.ID, ReminderType: models.ReminderFloss, Time: "21:00", IsActive: true})
	db.Create(&models.NutritionLog{UserID: &u.ID, FoodDescription: "apple"})
	db.Create(&models.RiskAssessment{
		UserID:     &u.ID,
		RiskScores: models.JSONOf(map[string]float64{models.RiskCavity: 0.9, models.RiskGumDisease: 0.8, models.RiskSensitivity: 0.7, models.RiskEnamelErosion: 0.6}),
	})

	w := doJSON(r, http.MethodGet, fmt.Sprintf("/api/users/stats?user_id=%d", u.ID), nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var stats Stats
	json.Unmarshal(w.Body.Bytes(), &stats)
	if stats.Reminders != 1 || stats.ActiveReminders != 1 || stats.NutritionLogs != 1 || stats.RiskAssessments != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.OverallRiskLevel == nil || *stats.OverallRiskLevel != "high" {
		t.Errorf("expected high overall level, got %v", stats.OverallRiskLevel)
	}
}

func TestStatsWithoutAssessment(t *testing.T) {
	r, db, _ := setupRouter(t)
	u := newUser(t, db, 0)

	w := doJSON(r, http.MethodGet, fmt.Sprintf("/api/users/stats?user_id=%d", u.ID), nil, "")
	var stats Stats
	json.Unmarshal(w.Body.Bytes(), &stats)
	if w.Code != http.StatusOK || stats.OverallRiskLevel != nil {
		t.Errorf("expected 200 with no risk level, got %d %+v", w.Code, stats)
	}
}

func TestLinkAndCheckTelegram(t *testing.T) {
	r, db, _ := setupRouter(t)
	a := newUser(t, db, 0)
	b := newUser(t, db, 777)

	w := doJSON(r, http.MethodPost, fmt.Sprintf("/api/users/link-telegram/%d", a.ID), map[string]int64{"telegram_id": 777}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("linking a taken chat id: expected 400, got %d", w.Code)
	}

	w = doJSON(r, http.MethodPost, fmt.Sprintf("/api/users/link-telegram/%d", a.ID), map[string]int64{"telegram_id": 888}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var check struct {
		Exists bool  `json:"exists"`
		UserID *uint `json:"user_id"`
	}
	w = doJSON(r, http.MethodGet, "/api/users/check-telegram/888", nil, "")
	json.Unmarshal(w.Body.Bytes(), &check)
	if !check.Exists || check.UserID == nil || *check.UserID != a.ID {
		t.Errorf("expected 888 to belong to user %d, got %+v", a.ID, check)
	}

	w = doJSON(r, http.MethodGet, "/api/users/check-telegram/999", nil, "")
	check.Exists = true
	json.Unmarshal(w.Body.Bytes(), &check)
	if check.Exists {
		t.Error("expected unknown chat id to report exists=false")
	}

	w = doJSON(r, http.MethodGet, "/api/users/all-telegram-users", nil, "")
	var list []models.User
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 2 || list[1].ID != b.ID {
		t.Errorf("expected both linked users, got %+v", list)
	}
}
