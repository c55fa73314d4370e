package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bbelderbos/codeimages/internal/common"
	"github.com/bbelderbos/codeimages/internal/dbx"
	"github.com/bbelderbos/codeimages/internal/server/models"
)

const (
	usernameConstraint = "accounts_username_key"
	emailConstraint    = "accounts_email_key"
)

const accountColumns = `id, username, email, password_hash, activation_key, key_expires,
		 verified, active, premium, premium_day_limit, created_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (username, email, password_hash, activation_key, key_expires,
		 verified, active, premium, premium_day_limit)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.Username, account.Email, account.PasswordHash, account.ActivationKey, account.KeyExpires,
		account.Verified, account.Active, account.Premium, account.PremiumDayLimit,
	).Scan(&account.ID, &account.CreatedAt)

	if err != nil {
		if constraint, ok := dbx.UniqueViolation(err); ok {
			switch constraint {
			case usernameConstraint:
				return nil, common.ErrDuplicateUsername
			case emailConstraint:
				return nil, common.ErrDuplicateEmail
			}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		 WHERE username = $1
		 `
	return r.getOne(ctx, query, username)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		 WHERE email = $1
		 `
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetByActivationKey(ctx context.Context, key string) (*models.Account, error) {
	if key == "" {
		return nil, common.ErrNotFound
	}
	query := `SELECT ` + accountColumns + ` FROM accounts
		 WHERE activation_key = $1
		 `
	return r.getOne(ctx, query, key)
}

func (r *PostgresRepository) MarkVerified(ctx context.Context, id, key string) (*models.Account, error) {
	query :=
		`UPDATE accounts SET verified = TRUE, activation_key = ''
		 WHERE id = $1 AND activation_key = $2 AND activation_key <> ''
		 RETURNING ` + accountColumns + `
		 `
	return r.getOne(ctx, query, id, key)
}

func (r *PostgresRepository) LockForUpdate(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		 WHERE id = $1
		 FOR UPDATE
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Account, error) {
	account := &models.Account{}
	var keyExpires sql.NullTime

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&account.ID, &account.Username, &account.Email, &account.PasswordHash, &account.ActivationKey, &keyExpires,
		&account.Verified, &account.Active, &account.Premium, &account.PremiumDayLimit, &account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if keyExpires.Valid {
		t := keyExpires.Time.UTC()
		account.KeyExpires = &t
	}
	return account, nil
}
