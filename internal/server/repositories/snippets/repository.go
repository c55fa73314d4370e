// Package snippets provides snippet persistence and the read queries behind
// the public listing and search.
package snippets

import (
	"context"
	"time"

	"github.com/bbelderbos/codeimages/internal/server/models"
)

type Repository interface {
	// Create inserts the snippet and fills ID and CreatedAt. A unique
	// violation on (account_id, title) maps to common.ErrDuplicateTitle.
	Create(ctx context.Context, snippet *models.Snippet) (*models.Snippet, error)
	GetByID(ctx context.Context, id string) (*models.Snippet, error)
	ExistsTitle(ctx context.Context, accountID, title string) (bool, error)
	// CountCreatedBetween counts the account's snippets with
	// from <= created_at < to.
	CountCreatedBetween(ctx context.Context, accountID string, from, to time.Time) (int, error)
	Delete(ctx context.Context, id string) error
	ListPublic(ctx context.Context, page models.Page) ([]*models.Snippet, error)
	// SearchPublic matches term case-insensitively as a substring of title,
	// code or description.
	SearchPublic(ctx context.Context, term string, page models.Page) ([]*models.Snippet, error)
}
