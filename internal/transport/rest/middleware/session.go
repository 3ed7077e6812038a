package middleware

import (
	"context"
	"net/http"

	"auditapi/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const SessionIDKey contextKey = "sessionId"

// SessionCookieName is the cookie carrying the signed session token
const SessionCookieName = "audit_session"

// SessionMiddleware attaches a session to every request
type SessionMiddleware struct {
	sessions *service.SessionService
	logger   *zap.Logger
}

// NewSessionMiddleware creates a new session middleware
func NewSessionMiddleware(sessions *service.SessionService, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, logger: logger.Named("session")}
}

// Session resumes the session named by the cookie, or starts a new one, and
// re-issues the cookie so its lifetime is refreshed on every request
func (m *SessionMiddleware) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionID string
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			if claims, err := m.sessions.Validate(cookie.Value); err == nil {
				sessionID = claims.SessionID
			}
		}

		token, sessionID, err := m.sessions.Issue(sessionID)
		if err != nil {
			m.logger.Error("failed to issue session", zap.Error(err))
			http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(m.sessions.TTL().Seconds()),
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})

		if err := m.sessions.Refresh(r.Context(), sessionID); err != nil {
			m.logger.Warn("failed to refresh session data", zap.String("session", sessionID), zap.Error(err))
		}

		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
	})
}

// WithSessionID returns a context carrying the session ID
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// GetSessionID extracts session ID from context
func GetSessionID(ctx context.Context) string {
	if v := ctx.Value(SessionIDKey); v != nil {
		return v.(string)
	}
	return ""
}
