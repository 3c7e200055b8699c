package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"lab-loan-backend/app"
	"lab-loan-backend/db"
	"lab-loan-backend/models"
	"lab-loan-backend/routes"
	"lab-loan-backend/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "app.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	a := app.New(conn, rdb, app.Config{
		RedisAddr:  mr.Addr(),
		WebOrigin:  "http://localhost:3000",
		SessionTTL: time.Hour,
	})
	routes.RegisterRoutes(a.Router, a)
	return a
}

func seedActiveUser(t *testing.T, a *app.App, role models.Role, password string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@example.edu",
		FullName:     "Seeded " + string(role),
		PasswordHash: hash,
		Role:         role,
		Status:       models.UserActive,
	}
	if err := a.DB.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func doJSON(t *testing.T, a *app.App, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == app.SessionCookie && ck.Value != "" {
			return ck
		}
	}
	return nil
}

func countAuditByActor(t *testing.T, a *app.App, action, actorID string) int64 {
	t.Helper()
	var n int64
	if err := a.DB.Model(&models.AuditLog{}).
		Where("action = ? AND actor_id = ?", action, actorID).
		Count(&n).Error; err != nil {
		t.Fatalf("count audit: %v", err)
	}
	return n
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestLoginPendingVerificationRefused(t *testing.T) {
	a := newTestApp(t)

	w := doJSON(t, a, http.MethodPost, "/auth/register", map[string]any{
		"email":    "budi@example.edu",
		"fullName": "Budi Santoso",
		"password": "hunter2secret",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", w.Code, w.Body.String())
	}
	id := decodeBody(t, w)["data"].(map[string]any)["id"].(string)

	w = doJSON(t, a, http.MethodPost, "/auth/login", map[string]any{
		"email":    "budi@example.edu",
		"password": "hunter2secret",
	}, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("login status = %d, want 403", w.Code)
	}
	if got := decodeBody(t, w)["error"]; got != "account is awaiting verification" {
		t.Fatalf("error message = %v", got)
	}
	if ck := sessionCookie(t, w); ck != nil {
		t.Fatalf("session cookie issued for pending account: %v", ck)
	}
	// A refused login is not a successful mutation and leaves no audit row.
	if n := countAuditByActor(t, a, models.ActionLogin, id); n != 0 {
		t.Errorf("login audit rows = %d, want 0", n)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	a := newTestApp(t)
	u := seedActiveUser(t, a, models.RoleStudent, "correct-horse1")

	w := doJSON(t, a, http.MethodPost, "/auth/login", map[string]any{
		"email":    u.Email,
		"password": "wrong-password",
	}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	// same answer for an unknown address
	w = doJSON(t, a, http.MethodPost, "/auth/login", map[string]any{
		"email":    "nobody@example.edu",
		"password": "whatever123",
	}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email status = %d, want 401", w.Code)
	}
}

func TestActivateThenLoginLogout(t *testing.T) {
	a := newTestApp(t)
	admin := seedActiveUser(t, a, models.RoleAdmin, "admin-pass-123")

	w := doJSON(t, a, http.MethodPost, "/auth/register", map[string]any{
		"email":     "siti@example.edu",
		"fullName":  "Siti Rahma",
		"studentId": "2210512345",
		"password":  "siti-password",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", w.Code, w.Body.String())
	}
	created := decodeBody(t, w)["data"].(map[string]any)
	newID := created["id"].(string)
	if created["status"] != string(models.UserPendingVerification) {
		t.Fatalf("new account status = %v", created["status"])
	}

	w = doJSON(t, a, http.MethodPost, "/auth/login", map[string]any{
		"email": admin.Email, "password": "admin-pass-123",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin login status = %d, body %s", w.Code, w.Body.String())
	}
	adminCk := sessionCookie(t, w)
	if adminCk == nil {
		t.Fatal("admin login issued no session cookie")
	}

	w = doJSON(t, a, http.MethodPut, "/api/users/"+newID+"/status", map[string]any{
		"status": "active",
	}, adminCk)
	if w.Code != http.StatusOK {
		t.Fatalf("activate status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, a, http.MethodPost, "/auth/login", map[string]any{
		"email": "siti@example.edu", "password": "siti-password",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login after activation = %d, body %s", w.Code, w.Body.String())
	}
	ck := sessionCookie(t, w)
	if ck == nil {
		t.Fatal("no session cookie after activation")
	}
	body := decodeBody(t, w)["data"].(map[string]any)
	if body["forcePasswordChange"] != false {
		t.Fatalf("forcePasswordChange = %v", body["forcePasswordChange"])
	}

	// Each login leaves exactly one audit row naming the actor.
	if n := countAuditByActor(t, a, models.ActionLogin, newID); n != 1 {
		t.Errorf("login audit rows = %d, want 1", n)
	}

	w = doJSON(t, a, http.MethodGet, "/auth/whoami", nil, ck)
	if w.Code != http.StatusOK {
		t.Fatalf("whoami status = %d", w.Code)
	}
	me := decodeBody(t, w)["data"].(map[string]any)
	if me["email"] != "siti@example.edu" {
		t.Fatalf("whoami email = %v", me["email"])
	}

	w = doJSON(t, a, http.MethodPost, "/auth/logout", nil, ck)
	if w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}
	if n := countAuditByActor(t, a, models.ActionLogout, newID); n != 1 {
		t.Errorf("logout audit rows = %d, want 1", n)
	}
	w = doJSON(t, a, http.MethodGet, "/auth/whoami", nil, ck)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("whoami after logout = %d, want 401", w.Code)
	}
}

func TestChangePasswordRotatesSession(t *testing.T) {
	a := newTestApp(t)
	u := seedActiveUser(t, a, models.RoleStudent, "old-password-1")

	w := doJSON(t, a, http.MethodPost, "/auth/login", map[string]any{
		"email": u.Email, "password": "old-password-1",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d", w.Code)
	}
	oldCk := sessionCookie(t, w)

	w = doJSON(t, a, http.MethodPost, "/auth/change-password", map[string]any{
		"currentPassword": "old-password-1",
		"newPassword":     "new-password-2",
	}, oldCk)
	if w.Code != http.StatusOK {
		t.Fatalf("change-password status = %d, body %s", w.Code, w.Body.String())
	}
	newCk := sessionCookie(t, w)
	if newCk == nil || newCk.Value == oldCk.Value {
		t.Fatal("expected a re-issued session after password change")
	}

	w = doJSON(t, a, http.MethodGet, "/auth/whoami", nil, oldCk)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("old session still valid after password change: %d", w.Code)
	}
	w = doJSON(t, a, http.MethodGet, "/auth/whoami", nil, newCk)
	if w.Code != http.StatusOK {
		t.Fatalf("new session rejected: %d", w.Code)
	}

	w = doJSON(t, a, http.MethodPost, "/auth/login", map[string]any{
		"email": u.Email, "password": "old-password-1",
	}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("old password still accepted: %d", w.Code)
	}
}

func TestDeactivatedAccountLockedOut(t *testing.T) {
	a := newTestApp(t)
	admin := seedActiveUser(t, a, models.RoleAdmin, "admin-pass-123")
	u := seedActiveUser(t, a, models.RoleStudent, "student-pass-1")

	w := doJSON(t, a, http.MethodPost, "/auth/login", map[string]any{
		"email": admin.Email, "password": "admin-pass-123",
	}, nil)
	adminCk := sessionCookie(t, w)

	w = doJSON(t, a, http.MethodPost, "/auth/login", map[string]any{
		"email": u.Email, "password": "student-pass-1",
	}, nil)
	userCk := sessionCookie(t, w)
	if userCk == nil {
		t.Fatal("student login issued no cookie")
	}

	w = doJSON(t, a, http.MethodPut, "/api/users/"+u.ID+"/status", map[string]any{
		"status": "inactive",
	}, adminCk)
	if w.Code != http.StatusOK {
		t.Fatalf("deactivate status = %d, body %s", w.Code, w.Body.String())
	}

	// live session is revoked, not just future logins
	w = doJSON(t, a, http.MethodGet, "/auth/whoami", nil, userCk)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("whoami after deactivation = %d, want 401", w.Code)
	}

	w = doJSON(t, a, http.MethodPost, "/auth/login", map[string]any{
		"email": u.Email, "password": "student-pass-1",
	}, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("login after deactivation = %d, want 403", w.Code)
	}
	if got := decodeBody(t, w)["error"]; got != "account has been deactivated" {
		t.Fatalf("error message = %v", got)
	}
}

func TestAdminOnlyRoutes(t *testing.T) {
	a := newTestApp(t)
	u := seedActiveUser(t, a, models.RoleStudent, "student-pass-1")

	w := doJSON(t, a, http.MethodPost, "/auth/login", map[string]any{
		"email": u.Email, "password": "student-pass-1",
	}, nil)
	ck := sessionCookie(t, w)

	w = doJSON(t, a, http.MethodGet, "/api/audit-logs", nil, ck)
	if w.Code != http.StatusForbidden {
		t.Fatalf("audit-logs as student = %d, want 403", w.Code)
	}
	w = doJSON(t, a, http.MethodPost, "/api/laboratories", map[string]any{
		"name": "Fisika Dasar", "code": "FIS-01",
	}, ck)
	if w.Code != http.StatusForbidden {
		t.Fatalf("create laboratory as student = %d, want 403", w.Code)
	}

	w = doJSON(t, a, http.MethodGet, "/api/audit-logs", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("audit-logs without session = %d, want 401", w.Code)
	}
}
