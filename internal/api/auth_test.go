package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gsarma/texcompile/internal/jobs"
)

func newAuthedRouter(keys ...string) http.Handler {
	h := NewHandler(&stubSource{}, &stubDispatcher{}, jobs.NewStore(), Options{
		DefaultTimeout: 5 * time.Second,
		APIKeys:        keys,
	})
	return newRouter(h, nil)
}

func TestAuth_MissingKey(t *testing.T) {
	r := newAuthedRouter("s3cret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/api/v0/compile", strings.NewReader(`{"text":"x"}`)))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"UNAUTHORIZED"`) {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}

func TestAuth_WrongKey(t *testing.T) {
	r := newAuthedRouter("s3cret", "other")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v0/jobs/00000000-0000-0000-0000-000000000000", nil)
	req.Header.Set("Authorization", "Bearer nope")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuth_ValidKeyReachesHandler(t *testing.T) {
	r := newAuthedRouter("s3cret", "other")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v0/jobs/00000000-0000-0000-0000-000000000000", nil)
	req.Header.Set("Authorization", "Bearer other")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 from the job handler, got %d", w.Code)
	}
}

func TestAuth_HealthcheckIsOpen(t *testing.T) {
	r := newAuthedRouter("s3cret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v0/healthcheck", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAuth_NoKeysConfiguredIsOpen(t *testing.T) {
	r := newAuthedRouter(" ", "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v0/jobs/00000000-0000-0000-0000-000000000000", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
