package api

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/unova-mun/unova-server/internal/logger"
)

// RequestLogger logs one line per request through the zap logger.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("Request handled",
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// ChatRateLimiter allows each user perMinute chat turns per minute, with
// bursts up to the same amount.
type ChatRateLimiter struct {
	mu        sync.Mutex
	perMinute int
	limits    map[int64]*rate.Limiter
}

// NewChatRateLimiter returns nil when perMinute is zero, which disables
// limiting.
func NewChatRateLimiter(perMinute int) *ChatRateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &ChatRateLimiter{
		perMinute: perMinute,
		limits:    make(map[int64]*rate.Limiter),
	}
}

func (rl *ChatRateLimiter) getLimiter(userID int64) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limits[userID]; ok {
		return limiter
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(rl.perMinute)), rl.perMinute)
	rl.limits[userID] = limiter
	return limiter
}

func (rl *ChatRateLimiter) Allow(userID int64) bool {
	return rl.getLimiter(userID).Allow()
}

// Middleware must run after the session middleware.
func (rl *ChatRateLimiter) Middleware(next http.Handler) http.Handler {
	if rl == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r.Context())
		if user != nil && !rl.Allow(user.ID) {
			w.Header().Set("Retry-After", strconv.Itoa(int((time.Minute / time.Duration(rl.perMinute)).Seconds())+1))
			writeMessage(w, http.StatusTooManyRequests, "Too many chat requests, please slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}
