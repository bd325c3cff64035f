package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	handler := RateLimit(2, time.Minute)(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/vouchers/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vouchers/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRateLimitKeysByClient(t *testing.T) {
	handler := RateLimit(1, time.Minute)(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/api/v1/vouchers/", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	other := httptest.NewRequest(http.MethodGet, "/api/v1/vouchers/", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected separate budget per client, got %d", rec.Code)
	}
}

func TestSensitiveMutationRateLimitTightensLogin(t *testing.T) {
	handler := SensitiveMutationRateLimit(4, time.Minute)(okHandler())

	for i := 0; i < 1; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.c"}`))
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.c"}`))
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected login budget of 1 to be exhausted, got %d", rec.Code)
	}
}

func TestSensitiveMutationRateLimitIgnoresOtherPaths(t *testing.T) {
	handler := SensitiveMutationRateLimit(4, time.Minute)(okHandler())

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/vouchers/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected pass-through, got %d", i+1, rec.Code)
		}
	}
}

func TestSensitiveScopeCoversVoucherMutations(t *testing.T) {
	for _, path := range []string{
		"/api/v1/vouchers/acquire/unassigned",
		"/api/v1/vouchers/acquire/assigned",
		"/api/v1/vouchers/assign",
		"/api/v1/workers/upload",
	} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if got := sensitiveRateScope(req); got != sensitiveScopeActor {
			t.Fatalf("%s: expected actor scope, got %q", path, got)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	if got := sensitiveRateScope(req); got != sensitiveScopeAuth {
		t.Fatalf("expected auth scope, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/vouchers/", nil)
	if got := sensitiveRateScope(req); got != sensitiveScopeNone {
		t.Fatalf("expected no scope, got %q", got)
	}
}
