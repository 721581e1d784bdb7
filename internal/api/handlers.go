package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/unova-mun/unova-server/internal/core"
	"github.com/unova-mun/unova-server/internal/logger"
	"github.com/unova-mun/unova-server/internal/store"
)

const sessionCookieName = "unova.sid"

type contextKey string

const userContextKey contextKey = "user"

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Chat      *core.ChatService
	Documents *core.DocumentService
	Auth      *core.AuthService
	DB        Pinger
}

type APIHandler struct {
	chat          *core.ChatService
	docs          *core.DocumentService
	auth          *core.AuthService
	db            Pinger
	log           *logger.Logger
	secureCookies bool
}

// NewAPIHandler wires the services behind the HTTP API. secureCookies
// sets the Secure attribute on the session cookie.
func NewAPIHandler(svc Services, log *logger.Logger, secureCookies bool) *APIHandler {
	return &APIHandler{
		chat:          svc.Chat,
		docs:          svc.Documents,
		auth:          svc.Auth,
		db:            svc.DB,
		log:           log,
		secureCookies: secureCookies,
	}
}

type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// writeError maps service errors to a status and a {message} body.
// Server-side failures are logged; the client gets a fixed message.
func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *core.ValidationError
		authErr       *core.AuthenticationError
		notFoundErr   *core.NotFoundError
		upstreamErr   *core.UpstreamError
		configErr     *core.ConfigurationError
	)
	log := h.log.With("request_id", middleware.GetReqID(r.Context()), "path", r.URL.Path)

	switch {
	case errors.As(err, &validationErr):
		writeMessage(w, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &authErr):
		writeMessage(w, http.StatusUnauthorized, authErr.Message)
	case errors.As(err, &notFoundErr):
		writeMessage(w, http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &upstreamErr):
		log.Error("Generation failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to generate a response")
	case errors.As(err, &configErr):
		log.Error("Service misconfigured", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Service is not configured")
	default:
		log.Error("Request failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &core.ValidationError{Message: "Invalid request body"}
	}
	return nil
}

// pathID parses the {id} URL parameter. A malformed id cannot name any
// row, so it is reported as not found.
func pathID(r *http.Request, resource string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.NotFoundError{Resource: resource}
	}
	return id, nil
}

func currentUser(ctx context.Context) *store.User {
	user, _ := ctx.Value(userContextKey).(*store.User)
	return user
}

func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// SessionMiddleware resolves the session cookie (or bearer token) to a
// user and rejects the request with 401 when it cannot.
func (h *APIHandler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.auth.Authenticate(r.Context(), sessionToken(r))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *APIHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *APIHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		h.log.Error("Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
