// Package auth issues and verifies the bearer credentials that resolve a
// request to a user id.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bankledger/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the owning user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: userID,
	})

	return token.SignedString(secretKey)
}

// GetUserIDFromToken validates the signature and expiry. Expired tokens map
// to common.ErrTokenExpired, anything else to common.ErrInvalidToken.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}

// Authenticator binds the signing secret and access-token lifetime so
// callers never handle them directly.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
}

func NewAuthenticator(secret []byte, ttl time.Duration) *Authenticator {
	return &Authenticator{secret: secret, ttl: ttl}
}

func (a *Authenticator) Issue(userID string) (string, error) {
	return GenerateToken(userID, a.secret, a.ttl)
}

func (a *Authenticator) Authenticate(token string) (string, error) {
	return GetUserIDFromToken(token, a.secret)
}

func (a *Authenticator) TTL() time.Duration {
	return a.ttl
}
