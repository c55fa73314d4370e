package snippets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bbelderbos/codeimages/internal/common"
	"github.com/bbelderbos/codeimages/internal/dbx"
	"github.com/bbelderbos/codeimages/internal/server/models"
)

const titleConstraint = "snippets_account_id_title_key"

const snippetColumns = `id, title, code, description, language, background, theme, watermark,
		 account_id, url, public, created_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, snippet *models.Snippet) (*models.Snippet, error) {
	query :=
		`INSERT INTO snippets (title, code, description, language, background, theme, watermark,
		 account_id, url, public)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, NULLIF($9, ''), $10)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		snippet.Title, snippet.Code, snippet.Description, snippet.Language, snippet.Background, snippet.Theme,
		snippet.Watermark, snippet.AccountID, snippet.URL, snippet.Public,
	).Scan(&snippet.ID, &snippet.CreatedAt)

	if err != nil {
		if constraint, ok := dbx.UniqueViolation(err); ok && constraint == titleConstraint {
			return nil, common.ErrDuplicateTitle
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return snippet, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Snippet, error) {
	query := `SELECT ` + snippetColumns + ` FROM snippets
		 WHERE id = $1
		 `

	s, err := scanSnippet(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ExistsTitle(ctx context.Context, accountID, title string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM snippets WHERE account_id = $1 AND title = $2)
		 `

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, accountID, title).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) CountCreatedBetween(ctx context.Context, accountID string, from, to time.Time) (int, error) {
	query :=
		`SELECT COUNT(*) FROM snippets
		 WHERE account_id = $1 AND created_at >= $2 AND created_at < $3
		 `

	var n int
	if err := r.db.QueryRowContext(ctx, query, accountID, from, to).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM snippets WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListPublic(ctx context.Context, page models.Page) ([]*models.Snippet, error) {
	query := `SELECT ` + snippetColumns + ` FROM snippets
		 WHERE public
		 ORDER BY created_at DESC
		 OFFSET $1 LIMIT $2
		 `
	return r.list(ctx, query, page.Offset, page.Limit)
}

func (r *PostgresRepository) SearchPublic(ctx context.Context, term string, page models.Page) ([]*models.Snippet, error) {
	query := `SELECT ` + snippetColumns + ` FROM snippets
		 WHERE public AND (title ILIKE $1 OR code ILIKE $1 OR description ILIKE $1)
		 ORDER BY created_at DESC
		 OFFSET $2 LIMIT $3
		 `
	return r.list(ctx, query, "%"+escapeLike(term)+"%", page.Offset, page.Limit)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Snippet, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select snippets: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Snippet, 0)
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row rowScanner) (*models.Snippet, error) {
	s := &models.Snippet{}
	var description, url sql.NullString

	if err := row.Scan(
		&s.ID, &s.Title, &s.Code, &description, &s.Language, &s.Background, &s.Theme, &s.Watermark,
		&s.AccountID, &url, &s.Public, &s.CreatedAt,
	); err != nil {
		return nil, err
	}
	s.Description = description.String
	s.URL = url.String
	return s, nil
}

// escapeLike escapes LIKE metacharacters so term matches literally.
func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
