package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_EmbeddedInOrder(t *testing.T) {
	names, err := fs.Glob(Migrations, "*.sql")
	require.NoError(t, err)
	require.Equal(t, []string{"00001_create_accounts.sql", "00002_create_snippets.sql"}, names)

	for _, name := range names {
		b, err := fs.ReadFile(Migrations, name)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(b), "-- +goose Up"), name)
		assert.True(t, strings.Contains(string(b), "-- +goose Down"), name)
	}
}

func TestMigrations_ConstraintNames(t *testing.T) {
	accounts, err := fs.ReadFile(Migrations, "00001_create_accounts.sql")
	require.NoError(t, err)
	assert.Contains(t, string(accounts), "CONSTRAINT accounts_username_key UNIQUE (username)")
	assert.Contains(t, string(accounts), "CONSTRAINT accounts_email_key UNIQUE (email)")

	snippets, err := fs.ReadFile(Migrations, "00002_create_snippets.sql")
	require.NoError(t, err)
	assert.Contains(t, string(snippets), "CONSTRAINT snippets_account_id_title_key UNIQUE (account_id, title)")
	assert.Contains(t, string(snippets), "ON DELETE CASCADE")
}
