package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/bankledger/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := GenerateToken("user-123", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	got, err := GetUserIDFromToken(tok, secret)
	if err != nil {
		t.Fatalf("GetUserIDFromToken error: %v", err)
	}
	if got != "user-123" {
		t.Fatalf("userID mismatch: got %q", got)
	}
}

func TestGetUserIDFromToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken("u1", secret, -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = GetUserIDFromToken(tok, secret)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestGetUserIDFromToken_Rejects(t *testing.T) {
	t.Parallel()

	good, err := GenerateToken("u2", []byte("right-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u2"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}

	cases := map[string]string{
		"wrong secret": good,
		"malformed":    "not.a.jwt",
		"alg none":     unsigned,
		"empty":        "",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := GetUserIDFromToken(tok, []byte("wrong-secret"))
			if !errors.Is(err, common.ErrInvalidToken) {
				t.Fatalf("expected common.ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestAuthenticator_RoundTrip(t *testing.T) {
	a := NewAuthenticator([]byte("k"), time.Hour)

	tok, err := a.Issue("u-9")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	got, err := a.Authenticate(tok)
	if err != nil || got != "u-9" {
		t.Fatalf("Authenticate = %q, %v", got, err)
	}
	if a.TTL() != time.Hour {
		t.Fatalf("TTL = %v", a.TTL())
	}
}
