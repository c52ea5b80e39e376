package httputil

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// TestLimiter verifies per-IP concurrent request limits.
func TestLimiter(t *testing.T) {
	limiter := NewLimiter(3, 0)

	// Acquire up to the limit.
	for i := 0; i < 3; i++ {
		if !limiter.Acquire("10.0.0.1") {
			t.Fatalf("acquire %d should succeed", i+1)
		}
	}

	// 4th should fail.
	if limiter.Acquire("10.0.0.1") {
		t.Error("acquire beyond limit should fail")
	}

	// Different IP should still work.
	if !limiter.Acquire("10.0.0.2") {
		t.Error("different IP should not be limited")
	}

	limiter.Release("10.0.0.1")
	if !limiter.Acquire("10.0.0.1") {
		t.Error("acquire after release should succeed")
	}

	if c := limiter.Count("10.0.0.1"); c != 3 {
		t.Errorf("count = %d, want 3", c)
	}
	if c := limiter.Count("10.0.0.2"); c != 1 {
		t.Errorf("count = %d, want 1", c)
	}
}

func TestLimiterGlobalCap(t *testing.T) {
	limiter := NewLimiter(10, 2)
	if !limiter.Acquire("a") || !limiter.Acquire("b") {
		t.Fatal("first two acquires should succeed")
	}
	if limiter.Acquire("c") {
		t.Error("global cap not enforced")
	}
}

// TestLimiterConcurrent verifies limiter thread safety.
func TestLimiterConcurrent(t *testing.T) {
	limiter := NewLimiter(100, 0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Acquire("10.0.0.1") {
				defer limiter.Release("10.0.0.1")
				time.Sleep(10 * time.Millisecond)
			}
		}()
	}
	wg.Wait()

	if c := limiter.Count("10.0.0.1"); c != 0 {
		t.Errorf("count after all released = %d, want 0", c)
	}
}

// TestLimitHTTPResponse verifies a 429 when the limit is exceeded.
func TestLimitHTTPResponse(t *testing.T) {
	limiter := NewLimiter(1, 0)
	release := make(chan struct{})
	entered := make(chan struct{})

	h := Limit(limiter, false, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/propagate", nil)
		req.RemoteAddr = "10.0.0.1:1000"
		h.ServeHTTP(httptest.NewRecorder(), req)
	}()
	<-entered

	req := httptest.NewRequest(http.MethodPost, "/api/v1/propagate", nil)
	req.RemoteAddr = "10.0.0.1:1001"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	close(release)
	<-done
	if c := limiter.Count("10.0.0.1"); c != 0 {
		t.Errorf("slot not released: count = %d", c)
	}
}
