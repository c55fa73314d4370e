package repomanager

import (
	"context"
	"database/sql"
	"time"

	"github.com/bbelderbos/codeimages/internal/dbx"
	"github.com/bbelderbos/codeimages/internal/server/repositories/accounts"
	"github.com/bbelderbos/codeimages/internal/server/repositories/snippets"
)

// InMemoryRepositoryManager hands out the same in-memory repositories no
// matter which DBTX is passed. Transactions still run on the given *sql.DB,
// so callers pair it with a stub database such as sqlmock.
type InMemoryRepositoryManager struct {
	AccountRepo *accounts.MemoryRepository
	SnippetRepo *snippets.MemoryRepository
}

func NewInMemoryRepositoryManager(now func() time.Time) *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		AccountRepo: accounts.NewMemoryRepository(),
		SnippetRepo: snippets.NewMemoryRepository(now),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *InMemoryRepositoryManager) Accounts(dbx.DBTX) accounts.Repository { return m.AccountRepo }

func (m *InMemoryRepositoryManager) Snippets(dbx.DBTX) snippets.Repository { return m.SnippetRepo }
