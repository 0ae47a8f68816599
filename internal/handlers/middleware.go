package handlers

import (
	"context"
	"net/http"
	"time"

	"nextgenschool/internal/identity"
	"nextgenschool/internal/logger"
	"nextgenschool/internal/metrics"
	"nextgenschool/internal/security"
	"nextgenschool/internal/session"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const SessionContextKey ContextKey = "session"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	sessions   *session.Manager
	tokens     *security.TokenIssuer
	pinLimiter *security.RateLimiter
	log        *logger.Logger
	metrics    *metrics.Metrics
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(sessions *session.Manager, tokens *security.TokenIssuer, pinLimiter *security.RateLimiter, log *logger.Logger, m *metrics.Metrics) *Middleware {
	return &Middleware{
		sessions:   sessions,
		tokens:     tokens,
		pinLimiter: pinLimiter,
		log:        log,
		metrics:    m,
	}
}

// RequireSession resolves the session token from the Authorization header
// or the session cookie. A valid token whose session is no longer live is
// resumed as a guest session.
func (m *Middleware) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := security.TokenFromRequest(r)
		if token == "" {
			respondWithError(w, m.log, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		sessionID, err := m.tokens.Parse(token)
		if err != nil {
			security.ClearTokenCookie(w, r)
			respondWithError(w, m.log, http.StatusUnauthorized, ErrUnauthorized, "rejected session token", err)
			return
		}

		s := m.sessions.Resume(r.Context(), sessionID)
		ctx := context.WithValue(r.Context(), SessionContextKey, s)
		next(w, r.WithContext(ctx))
	}
}

// RequireParent is RequireSession restricted to parent identities
func (m *Middleware) RequireParent(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireSession(func(w http.ResponseWriter, r *http.Request) {
		s := GetSessionFromContext(r.Context())
		if s.Identity().Kind != identity.KindParent {
			respondWithError(w, m.log, http.StatusForbidden, ErrForbidden, "", nil)
			return
		}
		next(w, r)
	})
}

// RateLimit throttles PIN attempts per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.pinLimiter.Allow(ip) {
			m.metrics.PINLogin("throttled")
			m.log.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			respondWithError(w, m.log, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

// statusRecorder remembers the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// Logging logs every request and records its latency
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.metrics.ObserveRequest(r.Method, endpoint, rec.status, elapsed)
		m.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", elapsed,
		)
	})
}

// GetSessionFromContext retrieves the session from the request context
func GetSessionFromContext(ctx context.Context) *session.Session {
	s, ok := ctx.Value(SessionContextKey).(*session.Session)
	if !ok {
		return nil
	}
	return s
}
