package middleware

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/porton/gate-relay/internal/audit"
	apperrors "github.com/porton/gate-relay/internal/errors"
	redisclient "github.com/porton/gate-relay/internal/redis"
	"github.com/porton/gate-relay/internal/service"
)

// IPRateLimitMiddleware caps requests per client IP. With a Redis limiter the
// count is shared between instances; without one it falls back to an
// in-memory httprate counter.
type IPRateLimitMiddleware struct {
	limiter *service.RateLimiter
	limit   int
	window  time.Duration
	scope   string
}

func NewIPRateLimitMiddleware(limiter *service.RateLimiter, limit int, window time.Duration, scope string) *IPRateLimitMiddleware {
	return &IPRateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		scope:   scope,
	}
}

func (m *IPRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	if m.limit <= 0 {
		return next
	}

	if m.limiter == nil {
		return httprate.Limit(
			m.limit,
			m.window,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				m.reject(w, r, "")
			}),
		)(next)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := redisclient.RateLimitKey(m.scope, clientHost(r))
		allowed, resetAt := m.limiter.CheckLimit(r.Context(), key, m.limit, m.window)

		if !allowed {
			secondsLeft := int(time.Until(resetAt).Seconds()) + 1
			if secondsLeft < 1 {
				secondsLeft = 1
			}
			m.reject(w, r, fmt.Sprintf("%d", secondsLeft))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// reject writes the 429. httprate sets Retry-After itself, so retryAfter is
// empty on that path.
func (m *IPRateLimitMiddleware) reject(w http.ResponseWriter, r *http.Request, retryAfter string) {
	if retryAfter != "" {
		w.Header().Set("Retry-After", retryAfter)
	}
	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventRateLimitExceed,
		Details: map[string]interface{}{"scope": m.scope, "limit": m.limit},
	})
	writeError(w, apperrors.RateLimitExceeded())
}

func clientHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
