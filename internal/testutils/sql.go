package testutils

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-compendium/internal/sqldb"
)

// CreateTestSQLDB opens a migrated SQLite database in the test's temp dir
func CreateTestSQLDB(t *testing.T) (*sqldb.DB, func()) {
	ctx := context.Background()

	db, err := sqldb.Open(ctx, &sqldb.Config{
		Dialect: sqldb.DialectSQLite,
		DSN:     filepath.Join(t.TempDir(), "compendium.db"),
	})
	require.NoError(t, err, "failed to open sqlite")
	require.NoError(t, sqldb.Migrate(ctx, db), "failed to migrate sqlite")

	cleanup := func() {
		_ = db.Close()
	}

	return db, cleanup
}
