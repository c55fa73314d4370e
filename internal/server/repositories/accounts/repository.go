// Package accounts provides account persistence.
package accounts

import (
	"context"

	"github.com/bbelderbos/codeimages/internal/server/models"
)

type Repository interface {
	// Create inserts the account and fills ID and CreatedAt. Unique
	// violations map to common.ErrDuplicateUsername / ErrDuplicateEmail.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByActivationKey(ctx context.Context, key string) (*models.Account, error)
	// MarkVerified sets verified and clears the activation key, provided the
	// stored key still equals key. It returns common.ErrNotFound otherwise.
	MarkVerified(ctx context.Context, id, key string) (*models.Account, error)
	// LockForUpdate reads the account and, inside a transaction, holds its
	// row lock until commit.
	LockForUpdate(ctx context.Context, id string) (*models.Account, error)
}
