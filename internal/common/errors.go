// Package common defines sentinel errors and small helpers shared by the
// ledger server layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Ledger errors.
	ErrInsufficientFunds = fmt.Errorf("insufficient funds: %w", ErrorValidation)
	ErrSenderNotFound    = fmt.Errorf("sender account %w", ErrorNotFound)
	ErrReceiverNotFound  = fmt.Errorf("receiver account %w", ErrorNotFound)
	ErrSameAccount       = fmt.Errorf("sender and receiver are the same account: %w", ErrorValidation)
	ErrAmountOutOfRange  = fmt.Errorf("amount out of range: %w", ErrorValidation)

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// Validationf returns an error that matches ErrorValidation and carries a
// caller-facing message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrorValidation)
}
