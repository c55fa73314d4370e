package repomanager

import (
	"context"
	"database/sql"

	"github.com/bbelderbos/codeimages/internal/dbx"
	"github.com/bbelderbos/codeimages/internal/server/repositories/accounts"
	"github.com/bbelderbos/codeimages/internal/server/repositories/snippets"
)

// RepositoryManager vends repositories bound to a dbx.DBTX, so services can
// run the same repository code against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Snippets(db dbx.DBTX) snippets.Repository
}
