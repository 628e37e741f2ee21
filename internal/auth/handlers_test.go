package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prodentai/companion/internal/database"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB, *TokenIssuer) {
	t.Helper()
	db, err := database.OpenInMemory(t.Name())
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })

	issuer := NewTokenIssuer("test-secret", time.Hour)
	r := gin.New()
	r.POST("/api/auth/register", RegisterHandler(db, issuer))
	r.POST("/api/auth/login", LoginHandler(db, issuer))
	r.GET("/api/auth/me", RequireAuth(issuer), MeHandler(db))
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

func TestRegisterTelegramUpsert(t *testing.T) {
	r, _, _ := setupRouter(t)

	first := doJSON(r, http.MethodPost, "/api/auth/register", map[string]interface{}{
		"telegram_id": 555, "username": "anna", "first_name": "Anna",
	}, "")
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", first.Code, first.Body.String())
	}
	var created Response
	json.Unmarshal(first.Body.Bytes(), &created)

	second := doJSON(r, http.MethodPost, "/api/auth/register", map[string]interface{}{
		"telegram_id": 555, "first_name": "Anya",
	}, "")
	if second.Code != http.StatusOK {
		t.Fatalf("expected 200 for existing telegram user, got %d", second.Code)
	}
	var again Response
	json.Unmarshal(second.Body.Bytes(), &again)

	if again.ID != created.ID {
		t.Errorf("expected same user id %d, got %d", created.ID, again.ID)
	}
	if again.FirstName != "Anya" || again.Username != "anna" {
		t.Errorf("expected refreshed first name and kept username, got %+v", again.User)
	}
	if again.AccessToken == "" {
		t.Error("expected access token")
	}
}

func TestRegisterEmailAndLogin(t *testing.T) {
	r, _, _ := setupRouter(t)

	reg := doJSON(r, http.MethodPost, "/api/auth/register", map[string]interface{}{
		"email": "Patient@Example.com", "password": "brush-twice",
	}, "")
	if reg.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", reg.Code, reg.Body.String())
	}

	dup := doJSON(r, http.MethodPost, "/api/auth/register", map[string]interface{}{
		"email": "patient@example.com", "password": "brush-twice",
	}, "")
	if dup.Code != http.StatusBadRequest {
		t.Errorf("duplicate email: expected 400, got %d", dup.Code)
	}

	bad := doJSON(r, http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email": "patient@example.com", "password": "wrong",
	}, "")
	if bad.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: expected 401, got %d", bad.Code)
	}

	login := doJSON(r, http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email": "patient@example.com", "password": "brush-twice",
	}, "")
	if login.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", login.Code)
	}
	var body struct {
		AccessToken string `json:"access_token"`
	}
	json.Unmarshal(login.Body.Bytes(), &body)

	me := doJSON(r, http.MethodGet, "/api/auth/me", nil, body.AccessToken)
	if me.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", me.Code)
	}
	if bytes.Contains(me.Body.Bytes(), []byte("hashed_password")) || bytes.Contains(me.Body.Bytes(), []byte("$2a$")) {
		t.Error("password hash leaked in response")
	}
}

func TestRegisterValidation(t *testing.T) {
	r, _, _ := setupRouter(t)

	cases := []map[string]interface{}{
		{},
		{"email": "not-an-email", "password": "secret1"},
		{"email": "a@b.co"},
		{"email": "a@b.co", "password": "123"},
	}
	for _, body := range cases {
		w := doJSON(r, http.MethodPost, "/api/auth/register", body, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %v: expected 400, got %d", body, w.Code)
		}
	}
}

func TestRequireAuth(t *testing.T) {
	r, _, _ := setupRouter(t)

	if w := doJSON(r, http.MethodGet, "/api/auth/me", nil, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("missing token: expected 401, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/api/auth/me", nil, "not-a-token"); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", w.Code)
	}
}

func TestRegisterTelegramDoesNotIssueTokenForPasswordAccount(t *testing.T) {
	r, _, _ := setupRouter(t)

	reg := doJSON(r, http.MethodPost, "/api/auth/register", map[string]interface{}{
		"email": "linked@example.com", "password": "brush-twice", "telegram_id": 777,
	}, "")
	if reg.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", reg.Code, reg.Body.String())
	}
	var owner Response
	json.Unmarshal(reg.Body.Bytes(), &owner)

	w := doJSON(r, http.MethodPost, "/api/auth/register", map[string]interface{}{"telegram_id": 777}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for existing telegram user, got %d", w.Code)
	}
	var got Response
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.ID != owner.ID {
		t.Errorf("expected user %d, got %d", owner.ID, got.ID)
	}
	if got.AccessToken != "" || bytes.Contains(w.Body.Bytes(), []byte("access_token")) {
		t.Errorf("password account must not get a token from its telegram id: %s", w.Body.String())
	}
}
