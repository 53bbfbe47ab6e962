package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newCSRFRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := NewService(openTestDB(t), nil, time.Hour)
	router := gin.New()
	router.Use(svc.CSRFMiddleware())
	handle := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	router.GET("/resource", handle)
	router.POST("/resource", handle)
	return router, svc
}

func csrfRequest(router *gin.Engine, method string, mutate func(*http.Request)) int {
	req := httptest.NewRequest(method, "/resource", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec.Code
}

func TestCSRFSkipsSafeMethods(t *testing.T) {
	router, _ := newCSRFRouter(t)
	if code := csrfRequest(router, http.MethodGet, nil); code != http.StatusNoContent {
		t.Fatalf("GET without tokens should pass, got %d", code)
	}
}

func TestCSRFRejectsMutationWithoutToken(t *testing.T) {
	router, _ := newCSRFRouter(t)
	if code := csrfRequest(router, http.MethodPost, nil); code != http.StatusForbidden {
		t.Fatalf("POST without tokens should be forbidden, got %d", code)
	}
}

func TestCSRFDoubleSubmitMatch(t *testing.T) {
	router, svc := newCSRFRouter(t)

	code := csrfRequest(router, http.MethodPost, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: svc.CSRFCookieName(), Value: "tok123"})
		req.Header.Set(svc.CSRFHeaderName(), "tok123")
	})
	if code != http.StatusNoContent {
		t.Fatalf("matching cookie and header should pass, got %d", code)
	}

	code = csrfRequest(router, http.MethodPost, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: svc.CSRFCookieName(), Value: "tok123"})
		req.Header.Set(svc.CSRFHeaderName(), "other")
	})
	if code != http.StatusForbidden {
		t.Fatalf("mismatched tokens should be forbidden, got %d", code)
	}
}

func TestCSRFExemptsBearerRequests(t *testing.T) {
	router, _ := newCSRFRouter(t)
	code := csrfRequest(router, http.MethodPost, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer sometoken")
	})
	if code != http.StatusNoContent {
		t.Fatalf("bearer request should bypass csrf, got %d", code)
	}
}
