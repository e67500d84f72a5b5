package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quaelen/pannier"
	pannierhttp "github.com/quaelen/pannier/http"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_ValidCookie(t *testing.T) {
	gate := pannier.NewGate("admin", "s3cret")
	mw := pannierhttp.AuthMiddleware(cookieAuth(), gate)

	req := httptest.NewRequest(http.MethodGet, "/manage", nil)
	req.AddCookie(&http.Cookie{Name: "pannier_auth", Value: pannier.EncodeToken("admin", "s3cret")})
	rec := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_InvalidCookie(t *testing.T) {
	gate := pannier.NewGate("admin", "s3cret")
	mw := pannierhttp.AuthMiddleware(cookieAuth(), gate)

	req := httptest.NewRequest(http.MethodGet, "/manage", nil)
	req.AddCookie(&http.Cookie{Name: "pannier_auth", Value: "forged"})
	rec := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	gate := pannier.NewGate("admin", "s3cret")
	mw := pannierhttp.AuthMiddleware(cookieAuth(), gate)

	req := httptest.NewRequest(http.MethodGet, "/browse", nil)
	req.Header.Set("Authorization", "Bearer "+pannier.EncodeToken("admin", "s3cret"))
	rec := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_BrowserRedirect(t *testing.T) {
	gate := pannier.NewGate("admin", "s3cret")
	mw := pannierhttp.AuthMiddleware(cookieAuth(), gate)

	req := httptest.NewRequest(http.MethodGet, "/manage", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9")
	rec := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	gate := pannier.NewGate("admin", "s3cret")
	mw := pannierhttp.AuthMiddleware(pannierhttp.AuthConfig{Enabled: false}, gate)

	rec := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/manage", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

// stubLimiter allows or denies every request.
type stubLimiter struct {
	allow      bool
	lastAction string
	lastClient string
}

func (s *stubLimiter) Allow(_ context.Context, action, clientID string) bool {
	s.lastAction = action
	s.lastClient = clientID
	return s.allow
}

func TestRateLimitMiddleware_Allows(t *testing.T) {
	limiter := &stubLimiter{allow: true}
	mw := pannierhttp.RateLimitMiddleware(limiter, "upload")

	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	req.Header.Set("CF-Connecting-IP", "1.2.3.4")
	rec := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "upload", limiter.lastAction)
	assert.Equal(t, "1.2.3.4", limiter.lastClient)
}

func TestRateLimitMiddleware_Blocks(t *testing.T) {
	mw := pannierhttp.RateLimitMiddleware(&stubLimiter{allow: false}, "upload")

	rec := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/upload", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimitMiddleware_NilLimiter(t *testing.T) {
	mw := pannierhttp.RateLimitMiddleware(nil, "upload")

	rec := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/upload", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientID_HeaderPrecedence(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-Connecting-IP", "1.1.1.1")
	req.Header.Set("X-Real-IP", "2.2.2.2")
	req.Header.Set("X-Forwarded-For", "3.3.3.3, 4.4.4.4")
	assert.Equal(t, "1.1.1.1", pannierhttp.ClientID(req))

	req.Header.Del("CF-Connecting-IP")
	assert.Equal(t, "2.2.2.2", pannierhttp.ClientID(req))

	req.Header.Del("X-Real-IP")
	assert.Equal(t, "3.3.3.3", pannierhttp.ClientID(req))

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "unknown", pannierhttp.ClientID(req))
}
