package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/logger"
	"rentstock-backend/internal/security"
)

const requestIDHeader = "X-Request-ID"

// AuthMiddleware requires an operator access token on the routes it wraps
type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

func (m *AuthMiddleware) RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := security.ParseBearer(r.Header.Get("Authorization"))
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "authorization token is not provided")
			return
		}

		claims, err := m.tokenManager.ValidateToken(token)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid token: "+err.Error())
			return
		}
		if !claims.IsOperator() {
			writeMessage(w, http.StatusForbidden, "operator role required")
			return
		}

		next.ServeHTTP(w, r.WithContext(security.WithClaims(r.Context(), claims)))
	})
}

// actorFrom returns the operator attached by RequireOperator
func actorFrom(r *http.Request) domain.Actor {
	claims, ok := security.ClaimsFromContext(r.Context())
	if !ok {
		return domain.Actor{}
	}
	return claims.Actor()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger tags every request with an id and logs its outcome
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		logger.Info("HTTP request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
