package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/jobprep/internal/model"
)

func newTestLimiter(t *testing.T, burst int) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:            rate.Limit(0.001),
		Burst:           burst,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rl.Stop)
	return rl
}

func requestAs(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/job-infos", nil)
	if userID == "" {
		return req
	}
	return req.WithContext(ContextWithUserID(req.Context(), userID))
}

func TestRateLimiter_AllowsUpToBurst(t *testing.T) {
	rl := newTestLimiter(t, 3)
	handler := rl.Middleware()(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestAs("user-1"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i+1, w.Code, http.StatusOK)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs("user-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if body := decodeErrorBody(t, w); body.Code != model.ErrCodeRateLimited {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeRateLimited)
	}
}

func TestRateLimiter_PerUserBuckets(t *testing.T) {
	rl := newTestLimiter(t, 1)
	handler := rl.Middleware()(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs("user-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("user-1 status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs("user-2"))
	if w.Code != http.StatusOK {
		t.Errorf("user-2 should have its own bucket, status = %d", w.Code)
	}
	if rl.LimiterCount() != 2 {
		t.Errorf("LimiterCount = %d, want 2", rl.LimiterCount())
	}
}

func TestRateLimiter_Unauthenticated_Returns401(t *testing.T) {
	rl := newTestLimiter(t, 1)
	handler := rl.Middleware()(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs(""))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRateLimiter_CleanupRemovesIdleLimiters(t *testing.T) {
	rl := newTestLimiter(t, 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("idle")
	now = now.Add(3 * time.Hour)
	rl.Allow("active")
	rl.cleanup()

	if rl.LimiterCount() != 1 {
		t.Fatalf("LimiterCount = %d, want 1", rl.LimiterCount())
	}
	if _, ok := rl.limiters["active"]; !ok {
		t.Error("active limiter should survive cleanup")
	}
}

func TestPerMinute(t *testing.T) {
	cfg := PerMinute(60)
	if cfg.Rate != rate.Limit(1) {
		t.Errorf("Rate = %v, want 1", cfg.Rate)
	}
	if cfg.Burst != 60 {
		t.Errorf("Burst = %d, want 60", cfg.Burst)
	}
	if def := PerMinute(0); def.Burst != 120 {
		t.Errorf("PerMinute(0).Burst = %d, want 120", def.Burst)
	}
	if got := retryAfterSeconds(cfg.Rate); got != 1 {
		t.Errorf("retryAfterSeconds = %d, want 1", got)
	}
}
