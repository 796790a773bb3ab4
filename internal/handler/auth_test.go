package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/milkrun/internal/database"
	"github.com/dukerupert/milkrun/internal/model"
	"github.com/dukerupert/milkrun/internal/store"
)

func setupAuthHandler(t *testing.T) (*AuthHandler, *store.SessionStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ss := store.NewSessionStore(db)
	return NewAuthHandler(store.NewUserStore(db), ss, slog.Default()), ss
}

func doLogin(t *testing.T, h *AuthHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func TestLoginDemoBackdoor(t *testing.T) {
	h, ss := setupAuthHandler(t)

	rec := doLogin(t, h, `{"email":"demo","role":"admin"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}

	var user model.User
	if err := json.NewDecoder(rec.Body).Decode(&user); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if user.ID != "admin1" {
		t.Errorf("demo admin login returned %q, want admin1", user.ID)
	}

	var token string
	for _, c := range rec.Result().Cookies() {
		if c.Name == "milkrun_session" {
			token = c.Value
		}
	}
	if token == "" {
		t.Fatal("no session cookie set")
	}
	sess, err := ss.GetByToken(token)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess == nil || sess.UserID != "admin1" {
		t.Errorf("session = %+v, want admin1", sess)
	}
}

func TestLoginExactEmail(t *testing.T) {
	h, _ := setupAuthHandler(t)

	rec := doLogin(t, h, `{"email":"John@Example.com","role":"user"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}

	var user model.User
	if err := json.NewDecoder(rec.Body).Decode(&user); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if user.ID != "user1" {
		t.Errorf("login returned %q, want user1", user.ID)
	}
}

func TestLoginRejectsUnknownAccount(t *testing.T) {
	h, _ := setupAuthHandler(t)

	rec := doLogin(t, h, `{"email":"nobody@example.com","role":"user"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLoginRejectsRoleMismatch(t *testing.T) {
	h, _ := setupAuthHandler(t)

	// john is a customer, not an admin.
	rec := doLogin(t, h, `{"email":"john@example.com","role":"admin"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLoginRejectsInvalidRole(t *testing.T) {
	h, _ := setupAuthHandler(t)

	rec := doLogin(t, h, `{"email":"demo","role":"superuser"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLogoutDeletesSession(t *testing.T) {
	h, ss := setupAuthHandler(t)

	sess, err := ss.Create("user1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(&http.Cookie{Name: "milkrun_session", Value: sess.Token})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got != nil {
		t.Error("session still valid after logout")
	}
}
