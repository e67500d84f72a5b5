package http

import (
	"context"
	"net/http"
	"strings"
)

// AuthMode selects how the token travels between client and server.
type AuthMode string

const (
	// ModeCookie delivers the token in an HttpOnly cookie; expiry is
	// enforced client-side through Max-Age, the token itself never expires.
	ModeCookie AuthMode = "cookie"
	// ModeToken hands the token to the client, which presents it as a
	// bearer token and re-verifies it on demand.
	ModeToken AuthMode = "token"
)

// TokenValidator issues and checks credential-derived tokens.
type TokenValidator interface {
	Issue(username, password string) (string, error)
	Validate(token string) bool
}

// AuthConfig configures the authentication middleware.
type AuthConfig struct {
	Enabled      bool
	Mode         AuthMode
	CookieName   string
	CookieMaxAge int
}

// AuthMiddleware enforces a valid token on protected routes. Browser
// navigation (Accept: text/html) gets redirected to the login page; API
// calls get a 401. With Enabled false every request passes.
func AuthMiddleware(cfg AuthConfig, validator TokenValidator) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validator.Validate(requestToken(r, cfg.CookieName)) {
				next.ServeHTTP(w, r)
				return
			}

			if wantsHTML(r) {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		})
	}
}

// requestToken extracts the token from the auth cookie or, failing that, a
// bearer Authorization header. Both transports are always accepted; the
// configured mode only decides which one login hands out.
func requestToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// RateLimiter is the limiter capability the middleware needs.
type RateLimiter interface {
	Allow(ctx context.Context, action, clientID string) bool
}

// RateLimitMiddleware rejects requests over the per-action cap with a 429.
// A nil limiter disables limiting.
func RateLimitMiddleware(limiter RateLimiter, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.Context(), action, ClientID(r)) {
				WriteError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientID identifies the caller for rate limiting. Proxy headers are
// trusted in order of specificity; absent all of them the caller is lumped
// into a shared "unknown" bucket.
func ClientID(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.Index(xff, ","); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	return "unknown"
}
