package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/quaelen/pannier"
)

// Service is the application capability behind the HTTP surface.
type Service interface {
	Browse(ctx context.Context, prefix, origin string) (pannier.DirListing, error)
	Upload(ctx context.Context, in pannier.UploadInput, origin string) (pannier.UploadResult, error)
	Fetch(ctx context.Context, key string) (pannier.ObjectInfo, io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// HandlerConfig configures the Handler.
type HandlerConfig struct {
	// PublicURL is the externally reachable base URL, used to build file
	// links in browse and upload responses. Empty falls back to the
	// request's own scheme and host.
	PublicURL string
	// MaxUploadBytes caps multipart upload size. Zero means no cap.
	MaxUploadBytes int64
	Auth           AuthConfig
}

// Handler provides the HTTP handlers: HTML pages, the authenticated
// management API and public object fetching.
type Handler struct {
	config  HandlerConfig
	service Service
	gate    TokenValidator
	limiter RateLimiter
	pages   *pages
}

// NewHandler creates a Handler. limiter may be nil to disable rate
// limiting; gate is required when auth is enabled.
func NewHandler(config *HandlerConfig, service Service, gate TokenValidator, limiter RateLimiter) *Handler {
	return &Handler{
		config:  *config,
		service: service,
		gate:    gate,
		limiter: limiter,
		pages:   newPages(),
	}
}

// Router returns the configured route tree.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Anything the route tree cannot place gets the path-echoing 404 page,
	// including wrong-method requests.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.pages.notFound(w, r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.pages.notFound(w, r.URL.Path)
	})

	r.Get("/", h.handleLanding)
	r.Get("/login", h.handleLoginPage)
	r.Get("/logout", h.handleLogout)
	r.Post("/login-check", h.handleLoginCheck)
	r.Post("/verify-token", h.handleVerifyToken)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(h.config.Auth, h.gate))

		r.Get("/manage", h.handleManagePage)

		r.With(RateLimitMiddleware(h.limiter, "browse")).Get("/browse/*", h.handleBrowse)
		r.With(RateLimitMiddleware(h.limiter, "browse")).Get("/browse", h.handleBrowse)
		r.With(RateLimitMiddleware(h.limiter, "upload")).Post("/upload", h.handleUpload)
		r.With(RateLimitMiddleware(h.limiter, "delete")).Delete("/delete/*", h.handleDelete)
	})

	// Object fetching is the public sharing surface; CORS stays wide open
	// so shared links embed anywhere.
	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodHead},
			ExposedHeaders: []string{"ETag", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/*", h.handleFetch)
		r.Head("/*", h.handleFetch)
	})

	return r
}

func (h *Handler) origin(r *http.Request) string {
	if h.config.PublicURL != "" {
		return strings.TrimSuffix(h.config.PublicURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func (h *Handler) handleBrowse(w http.ResponseWriter, r *http.Request) {
	prefix := wildcardParam(r)

	listing, err := h.service.Browse(r.Context(), prefix, h.origin(r))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, listing)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.config.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_upload", "Missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	in := pannier.UploadInput{
		FileName:      header.Filename,
		ContentType:   header.Header.Get("Content-Type"),
		UseCustomPath: r.FormValue("useCustomPath") == "true",
		CustomPath:    r.FormValue("customPath"),
		Body:          file,
	}

	result, err := h.service.Upload(r.Context(), in, h.origin(r))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := wildcardParam(r)
	if key == "" {
		WriteError(w, http.StatusBadRequest, "invalid_key", "Missing object key")
		return
	}

	if err := h.service.Remove(r.Context(), key); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleFetch(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")
	if key == "" || strings.HasSuffix(key, "/") {
		h.pages.notFound(w, r.URL.Path)
		return
	}

	info, content, err := h.service.Fetch(r.Context(), key)
	if err != nil {
		if errors.Is(err, pannier.ErrNotFound) {
			h.pages.notFound(w, r.URL.Path)
			return
		}
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	name := key
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	// Images and documents render in the browser; everything else downloads.
	disposition := "attachment"
	switch pannier.TypeFor(info.ContentType, name).Category {
	case pannier.CategoryImage, pannier.CategoryDocument:
		disposition = "inline"
	}

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, name))
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	if info.ETag != "" {
		w.Header().Set("ETag", `"`+info.ETag+`"`)
	}

	if r.Method == http.MethodHead {
		return
	}
	_, _ = io.Copy(w, content)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
}

func (h *Handler) handleLoginCheck(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed login request")
		return
	}

	token, err := h.gate.Issue(req.Username, req.Password)
	if err != nil {
		HandleError(w, err)
		return
	}

	resp := loginResponse{Success: true}
	if h.config.Auth.Mode == ModeCookie {
		http.SetCookie(w, &http.Cookie{
			Name:     h.config.Auth.CookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   h.config.Auth.CookieMaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	} else {
		resp.Token = token
	}

	_ = WriteJSON(w, http.StatusOK, resp)
}

type verifyRequest struct {
	Token string `json:"token"`
}

func (h *Handler) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed verify request")
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]bool{"valid": h.gate.Validate(req.Token)})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.config.Auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.pages.logout(w)
}

func (h *Handler) handleLanding(w http.ResponseWriter, r *http.Request) {
	h.pages.landing(w)
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	// An already-authenticated browser skips straight to the manager.
	if h.config.Auth.Enabled && h.gate.Validate(requestToken(r, h.config.Auth.CookieName)) {
		http.Redirect(w, r, "/manage", http.StatusFound)
		return
	}
	h.pages.login(w, h.config.Auth.Mode)
}

func (h *Handler) handleManagePage(w http.ResponseWriter, r *http.Request) {
	h.pages.manage(w, pannier.AcceptTypes(), h.config.Auth.Mode)
}

// wildcardParam returns the decoded trailing wildcard of the route. Keys
// arrive percent-encoded when they contain reserved characters.
func wildcardParam(r *http.Request) string {
	raw := chi.URLParam(r, "*")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func decodeJSON(r *http.Request, dst any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	return json.NewDecoder(r.Body).Decode(dst)
}
