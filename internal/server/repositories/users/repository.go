package users

import (
	"context"

	"github.com/dmitrijs2005/bankledger/internal/server/models"
)

type Repository interface {
	// Create inserts the user and fills in ID and CreatedAt. A taken email or
	// username yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
