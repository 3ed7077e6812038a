package service

import (
	"context"
	"errors"
	"time"

	"auditapi/internal/cache"
	"auditapi/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidSession = errors.New("invalid or expired session")

// SessionService issues and validates the signed session cookie value
type SessionService struct {
	secret  []byte
	ttl     time.Duration
	reports cache.ReportCache
	now     func() time.Time
}

// NewSessionService creates a session service. reports may be nil, in which
// case Refresh is a no-op.
func NewSessionService(secret string, ttl time.Duration, reports cache.ReportCache) *SessionService {
	return &SessionService{
		secret:  []byte(secret),
		ttl:     ttl,
		reports: reports,
		now:     time.Now,
	}
}

// TTL is the lifetime of a session after its last request
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for sessionID, starting a new session when it is empty
func (s *SessionService) Issue(sessionID string) (string, string, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	now := s.now()
	claims := &model.SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	return signed, sessionID, nil
}

// Validate checks a session token and returns its claims
func (s *SessionService) Validate(tokenString string) (*model.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(*model.SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// Refresh extends the lifetime of data stored for the session
func (s *SessionService) Refresh(ctx context.Context, sessionID string) error {
	if s.reports == nil {
		return nil
	}
	return s.reports.Touch(ctx, sessionID)
}
