package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"workervoucher/internal/domain/auth"
)

func TestAuthSetsUserFromBearerToken(t *testing.T) {
	token, err := auth.GenerateToken("secret", auth.Claims{
		UserID:   "user-1",
		RoleID:   "role-1",
		RoleName: "employer",
	}, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		if !ok {
			t.Fatal("expected user on context")
		}
		if user.UserID != "user-1" || user.RoleName != "employer" {
			t.Fatalf("unexpected user: %+v", user)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestAuthPassesThroughWithoutToken(t *testing.T) {
	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			t.Fatal("expected no user on context")
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestAuthIgnoresInvalidToken(t *testing.T) {
	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			t.Fatal("expected invalid token to be ignored")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

type staticPerms struct {
	allowed bool
	err     error
}

func (s staticPerms) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	return s.allowed, s.err
}

func withUser(r *http.Request, user auth.UserContext) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKeyUser, user))
}

func TestRequirePermissionRejectsAnonymous(t *testing.T) {
	handler := RequirePermission("voucher.search", staticPerms{allowed: true})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequirePermissionRejectsMissingPermission(t *testing.T) {
	handler := RequirePermission("voucher.delete", staticPerms{allowed: false})(okHandler())

	req := withUser(httptest.NewRequest(http.MethodPost, "/", nil), auth.UserContext{UserID: "u-1", RoleID: "r-1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequirePermissionAllows(t *testing.T) {
	handler := RequirePermission("voucher.search", staticPerms{allowed: true})(okHandler())

	req := withUser(httptest.NewRequest(http.MethodGet, "/", nil), auth.UserContext{UserID: "u-1", RoleID: "r-1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
