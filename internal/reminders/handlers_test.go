package reminders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prodentai/companion/internal/apierr"
	"github.com/prodentai/companion/internal/database"
	"github.com/prodentai/companion/internal/logging"
	"github.com/prodentai/companion/internal/models"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := apierr.RegisterValidators(); err != nil {
		panic(err)
	}
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db, err := database.OpenInMemory(t.Name())
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })

	r := gin.New()
	g := r.Group("/api/reminders")
	g.POST("/create", CreateHandler(db, logging.Nop()))
	g.GET("/user/:user_id", UserRemindersHandler(db))
	g.PUT("/toggle/:id", ToggleHandler(db))
	g.DELETE("/:id", DeleteHandler(db))
	g.GET("/types", TypesHandler())
	return r, db
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newUser(t *testing.T, db *gorm.DB) uint {
	t.Helper()
	u := models.User{FirstName: "Pavel", IsActive: true}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func TestCreateFillsDefaultMessage(t *testing.T) {
	r, db := setupRouter(t)
	userID := newUser(t, db)

	for _, c := range Categories {
		body := map[string]interface{}{"user_id": userID, "reminder_type": c.Type, "time": "09:30"}
		if c.NeedsDate {
			body["date"] = "2024-12-15"
		}
		w := doJSON(r, http.MethodPost, "/api/reminders/create", body)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", c.Type, w.Code, w.Body.String())
		}
		var got models.Reminder
		json.Unmarshal(w.Body.Bytes(), &got)
		if got.Message != c.DefaultMessage {
			t.Errorf("%s: expected default message %q, got %q", c.Type, c.DefaultMessage, got.Message)
		}
		if !got.IsActive {
			t.Errorf("%s: new reminders should be active", c.Type)
		}
	}
}

func TestCreateKeepsMessageAndDefaultsTime(t *testing.T) {
	r, db := setupRouter(t)
	userID := newUser(t, db)

	w := doJSON(r, http.MethodPost, "/api/reminders/create", map[string]interface{}{
		"user_id": userID, "reminder_type": "evening_hygiene", "message": "Brush!",
	})
	var got models.Reminder
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.Message != "Brush!" || got.Time != "22:00" {
		t.Errorf("unexpected reminder: %+v", got)
	}
}

func TestCreateValidation(t *testing.T) {
	r, db := setupRouter(t)
	userID := newUser(t, db)

	cases := []struct {
		name   string
		body   map[string]interface{}
		status int
	}{
		{"unknown type", map[string]interface{}{"user_id": userID, "reminder_type": "nap", "time": "08:00"}, http.StatusBadRequest},
		{"bad time", map[string]interface{}{"user_id": userID, "reminder_type": "floss", "time": "25:00"}, http.StatusBadRequest},
		{"bad date", map[string]interface{}{"user_id": userID, "reminder_type": "dental_visit", "time": "10:00", "date": "15.12.2024"}, http.StatusBadRequest},
		{"no user", map[string]interface{}{"reminder_type": "floss", "time": "21:00"}, http.StatusBadRequest},
		{"unknown user", map[string]interface{}{"user_id": 9999, "reminder_type": "floss", "time": "21:00"}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := doJSON(r, http.MethodPost, "/api/reminders/create", tc.body); w.Code != tc.status {
				t.Errorf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestToggleAndDelete(t *testing.T) {
	r, db := setupRouter(t)
	userID := newUser(t, db)

	w := doJSON(r, http.MethodPost, "/api/reminders/create", map[string]interface{}{
		"user_id": userID, "reminder_type": "morning_hygiene", "time": "08:00",
	})
	var created models.Reminder
	json.Unmarshal(w.Body.Bytes(), &created)

	var toggled struct {
		IsActive bool `json:"is_active"`
	}
	w = doJSON(r, http.MethodPut, fmt.Sprintf("/api/reminders/toggle/%d", created.ID), nil)
	json.Unmarshal(w.Body.Bytes(), &toggled)
	if w.Code != http.StatusOK || toggled.IsActive {
		t.Fatalf("expected flip to inactive, got %d %s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPut, fmt.Sprintf("/api/reminders/toggle/%d", created.ID), map[string]bool{"is_active": false})
	json.Unmarshal(w.Body.Bytes(), &toggled)
	if toggled.IsActive {
		t.Error("explicit is_active=false should keep the reminder inactive")
	}

	w = doJSON(r, http.MethodPut, fmt.Sprintf("/api/reminders/toggle/%d", created.ID), map[string]bool{"is_active": true})
	json.Unmarshal(w.Body.Bytes(), &toggled)
	if !toggled.IsActive {
		t.Error("explicit is_active=true should activate the reminder")
	}

	if w := doJSON(r, http.MethodDelete, fmt.Sprintf("/api/reminders/%d", created.ID), nil); w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodDelete, fmt.Sprintf("/api/reminders/%d", created.ID), nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPut, "/api/reminders/toggle/12345", nil); w.Code != http.StatusNotFound {
		t.Errorf("toggle missing: expected 404, got %d", w.Code)
	}
}

func TestUserRemindersNewestFirst(t *testing.T) {
	r, db := setupRouter(t)
	userID := newUser(t, db)

	for _, typ := range []string{"morning_hygiene", "floss"} {
		doJSON(r, http.MethodPost, "/api/reminders/create", map[string]interface{}{"user_id": userID, "reminder_type": typ})
	}

	w := doJSON(r, http.MethodGet, fmt.Sprintf("/api/reminders/user/%d", userID), nil)
	var list []models.Reminder
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 2 || list[0].ReminderType != "floss" {
		t.Errorf("expected floss first, got %+v", list)
	}

	w = doJSON(r, http.MethodGet, "/api/reminders/user/4242", nil)
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Errorf("expected empty list, got %d %s", w.Code, w.Body.String())
	}
}

func TestTypes(t *testing.T) {
	r, _ := setupRouter(t)
	w := doJSON(r, http.MethodGet, "/api/reminders/types", nil)
	var resp struct {
		Types []Category `json:"types"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Types) != 4 || resp.Types[0].DefaultTime != "08:00" {
		t.Errorf("unexpected types: %+v", resp.Types)
	}
}
