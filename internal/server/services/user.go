// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, and issuing/refreshing JWTs
// plus server-stored refresh tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/dmitrijs2005/bankledger/internal/common"
	"github.com/dmitrijs2005/bankledger/internal/cryptox"
	"github.com/dmitrijs2005/bankledger/internal/dbx"
	"github.com/dmitrijs2005/bankledger/internal/server/auth"
	"github.com/dmitrijs2005/bankledger/internal/server/config"
	"github.com/dmitrijs2005/bankledger/internal/server/models"
	"github.com/dmitrijs2005/bankledger/internal/server/repositories/repomanager"
)

const (
	minPasswordLength = 8
	userNameSuffixLen = 3 // bytes, rendered as 6 hex chars
	refreshTokenSize  = 32
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	authenticator                *auth.Authenticator
	refreshTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		authenticator:                auth.NewAuthenticator([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration),
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Authenticator exposes the token verifier for the transport layer.
func (s *UserService) Authenticator() *auth.Authenticator {
	return s.authenticator
}

// Register validates the credentials, derives a password verifier and
// creates the user under a generated username. A taken email yields
// common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, common.Validationf("password must be at least %d characters", minPasswordLength)
	}

	userName, err := makeUserName(email)
	if err != nil {
		return nil, common.ErrorInternal
	}

	salt, verifier := cryptox.HashPassword(password)
	user := &models.User{UserName: userName, Email: email, Salt: salt, Verifier: verifier}

	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the password and, on success, returns a new TokenPair.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, userName, password string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// spend the same derivation cost as a real check
			cryptox.VerifyPassword(password, common.GenerateRandByteArray(cryptox.SaltSize), nil)
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if !cryptox.VerifyPassword(password, user.Salt, user.Verifier) {
		return nil, common.ErrorUnauthorized
	}
	return s.generateTokenPair(ctx, user.ID, s.db)
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// --- helpers below ---

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", common.Validationf("invalid email address")
	}
	return email, nil
}

// makeUserName turns "John.Doe@x.io" into something like "johndoe_3fa91c".
func makeUserName(email string) (string, error) {
	local, _, _ := strings.Cut(email, "@")

	var sb strings.Builder
	for _, r := range local {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	if sb.Len() == 0 {
		sb.WriteString("user")
	}

	suffix, err := common.MakeRandHexString(userNameSuffixLen)
	if err != nil {
		return "", err
	}
	return sb.String() + "_" + suffix, nil
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.authenticator.Issue(userID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(refreshTokenSize)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.authenticator.TTL()}, nil
}
