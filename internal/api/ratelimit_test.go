package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(max int, windowDur time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	limiter := NewRateLimiter(nil)
	router.GET("/ping", limiter.Limit("ping", max, windowDur), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func ping(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitAllowsUpToMax(t *testing.T) {
	router := newLimitedRouter(3, time.Minute)

	for i := 0; i < 3; i++ {
		rec := ping(router, "10.0.0.1")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d blocked: %d", i+1, rec.Code)
		}
	}

	rec := ping(router, "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("over-limit response missing Retry-After")
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("expected zero remaining, got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimitHeadersCountDown(t *testing.T) {
	router := newLimitedRouter(5, time.Minute)

	rec := ping(router, "10.0.0.1")
	if rec.Header().Get("X-RateLimit-Limit") != "5" {
		t.Fatalf("unexpected limit header %q", rec.Header().Get("X-RateLimit-Limit"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "4" {
		t.Fatalf("unexpected remaining header %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
	if rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatal("missing reset header")
	}

	rec = ping(router, "10.0.0.1")
	if rec.Header().Get("X-RateLimit-Remaining") != "3" {
		t.Fatalf("unexpected remaining header %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimitKeysAreIndependent(t *testing.T) {
	router := newLimitedRouter(1, time.Minute)

	if rec := ping(router, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("first client blocked: %d", rec.Code)
	}
	if rec := ping(router, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("first client not limited: %d", rec.Code)
	}
	if rec := ping(router, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Fatalf("second client caught by first client's window: %d", rec.Code)
	}
}

func TestRateLimitWindowResets(t *testing.T) {
	router := newLimitedRouter(1, 50*time.Millisecond)

	if rec := ping(router, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("first request blocked: %d", rec.Code)
	}
	if rec := ping(router, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 inside window, got %d", rec.Code)
	}
	time.Sleep(60 * time.Millisecond)
	if rec := ping(router, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("window never reset: %d", rec.Code)
	}
}
