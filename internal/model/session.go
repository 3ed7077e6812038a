package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the JWT claims carried in the session cookie
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}
