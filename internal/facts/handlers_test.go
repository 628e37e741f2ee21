package facts

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prodentai/companion/internal/database"
	"github.com/prodentai/companion/internal/llm"
	"github.com/prodentai/companion/internal/logging"
	"github.com/prodentai/companion/internal/models"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db, err := database.OpenInMemory(t.Name())
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })

	catalog, err := llm.LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	gw := llm.NewGateway(nil, catalog, llm.Models{}, time.Second, logging.Nop())

	r := gin.New()
	g := r.Group("/api/facts")
	g.GET("/random", RandomHandler(db))
	g.GET("/category/:category", CategoryHandler(db))
	g.GET("/categories", CategoriesHandler())
	g.GET("/braces/search", BracesSearchHandler(db))
	g.GET("/braces/category/:category", BracesCategoryHandler(db))
	g.GET("/braces/categories", BracesCategoriesHandler())
	g.POST("/braces/chat", BracesChatHandler(db, gw, logging.Nop()))
	return r, db
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestCategoryFallsBackToDefaults(t *testing.T) {
	r, db := setupRouter(t)

	// A stored fact in another category must not hide the defaults
	db.Create(&models.Fact{Title: "Custom", Content: "Stored hygiene fact", Category: CategoryHygiene, IsActive: true})

	for _, cat := range []string{CategoryNutrition, CategoryPrevention, CategoryHistory} {
		w := get(r, "/api/facts/category/"+cat)
		var items []Item
		json.Unmarshal(w.Body.Bytes(), &items)
		want := DefaultsFor(cat)
		if len(want) == 0 || len(items) != len(want) {
			t.Fatalf("%s: expected %d defaults, got %d", cat, len(want), len(items))
		}
		for i := range items {
			if items[i] != want[i] {
				t.Errorf("%s[%d]: expected %+v, got %+v", cat, i, want[i], items[i])
			}
		}
	}

	w := get(r, "/api/facts/category/"+CategoryHygiene)
	var stored []Item
	json.Unmarshal(w.Body.Bytes(), &stored)
	if len(stored) != 1 || stored[0].Title != "Custom" {
		t.Errorf("expected the stored hygiene fact, got %+v", stored)
	}
}

func TestCategoryUnknownIsEmptyList(t *testing.T) {
	r, _ := setupRouter(t)
	w := get(r, "/api/facts/category/astrology")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected empty list, got %d %s", w.Code, w.Body.String())
	}
}

func TestDefaultsCoverEveryCategory(t *testing.T) {
	for _, c := range Categories {
		if len(DefaultsFor(c.Name)) == 0 {
			t.Errorf("no default facts for %s", c.Name)
		}
	}
}

func TestRandom(t *testing.T) {
	r, db := setupRouter(t)

	var item Item
	json.Unmarshal(get(r, "/api/facts/random").Body.Bytes(), &item)
	if item.Content == "" {
		t.Fatal("expected a default fact")
	}

	db.Create(&models.Fact{Title: "Only", Content: "The only stored fact", Category: CategoryHistory, IsActive: true})
	json.Unmarshal(get(r, "/api/facts/random").Body.Bytes(), &item)
	if item.Title != "Only" {
		t.Errorf("expected the stored fact, got %+v", item)
	}
}

func TestBracesSearch(t *testing.T) {
	r, db := setupRouter(t)
	if err := database.SeedReferenceData(db, logging.Nop(), DefaultBracesFAQs()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var found []FAQ
	json.Unmarshal(get(r, "/api/facts/braces/search?query=My%20bracket%20came%20off%20today").Body.Bytes(), &found)
	if len(found) == 0 || found[0].Category != "emergency" {
		t.Errorf("expected an emergency entry via keyword, got %+v", found)
	}

	json.Unmarshal(get(r, "/api/facts/braces/search?query=YOGURT").Body.Bytes(), &found)
	if len(found) != 1 || found[0].Category != "food" {
		t.Errorf("expected case-insensitive answer match, got %+v", found)
	}

	if w := get(r, "/api/facts/braces/search"); w.Code != http.StatusBadRequest {
		t.Errorf("missing query: expected 400, got %d", w.Code)
	}

	var byCategory []FAQ
	json.Unmarshal(get(r, "/api/facts/braces/category/cleaning").Body.Bytes(), &byCategory)
	if len(byCategory) != 2 {
		t.Errorf("expected 2 cleaning entries, got %d", len(byCategory))
	}
}

func TestBracesChat(t *testing.T) {
	r, db := setupRouter(t)
	u := models.User{FirstName: "Lena", IsActive: true}
	db.Create(&u)

	post := func(body interface{}) *httptest.ResponseRecorder {
		b, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/api/facts/braces/chat", bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post(map[string]interface{}{"user_id": u.ID, "message": "My bracket came off and it hurts"})
	var resp struct {
		Response string `json:"response"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if w.Code != http.StatusOK || !strings.Contains(resp.Response, "orthodontist") {
		t.Errorf("expected emergency fallback, got %d %q", w.Code, resp.Response)
	}

	if w := post(map[string]interface{}{"user_id": 0, "message": "hi"}); w.Code != http.StatusBadRequest {
		t.Errorf("user_id 0: expected 400, got %d", w.Code)
	}
	if w := post(map[string]interface{}{"user_id": u.ID, "message": strings.Repeat("a", 1001)}); w.Code != http.StatusBadRequest {
		t.Errorf("long message: expected 400, got %d", w.Code)
	}
	if w := post(map[string]interface{}{"user_id": 9999, "message": "hi"}); w.Code != http.StatusNotFound {
		t.Errorf("unknown user: expected 404, got %d", w.Code)
	}
}
