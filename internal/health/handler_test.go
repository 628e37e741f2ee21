package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prodentai/companion/internal/database"
)

func TestHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	Handler(w, req)

	resp := w.Result()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	body := w.Body.String()
	expected := `{"status":"ok"}`
	if body != expected {
		t.Errorf("expected body %s, got %s", expected, body)
	}
}

func TestReadyHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := database.OpenInMemory(t.Name())
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer database.Close(db)

	r := gin.New()
	r.GET("/api/health", ReadyHandler(db, nil, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var report Report
	json.Unmarshal(w.Body.Bytes(), &report)
	want := Report{Status: "healthy", Database: StateConnected, Redis: StateNotConfigured, MLService: StateFallbackOnly}
	if report != want {
		t.Errorf("expected %+v, got %+v", want, report)
	}
}

func TestReadyHandlerDatabaseDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := database.OpenInMemory(t.Name())
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	database.Close(db)

	r := gin.New()
	r.GET("/api/health", ReadyHandler(db, nil, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}
