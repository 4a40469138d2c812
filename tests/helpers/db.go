package helpers

import (
	"database/sql"
	"path"
	"testing"

	"github.com/goran-ethernal/StakeIndexor/internal/db"
	"github.com/goran-ethernal/StakeIndexor/internal/migrations"
	"github.com/goran-ethernal/StakeIndexor/pkg/config"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a migrated SQLite database in a temporary directory.
// The connection is closed when the test finishes.
func NewTestDB(t *testing.T, dbName string) (*sql.DB, config.DatabaseConfig) {
	t.Helper()

	dbConfig := config.DatabaseConfig{Path: path.Join(t.TempDir(), dbName)}
	dbConfig.ApplyDefaults()

	require.NoError(t, migrations.RunMigrations(dbConfig))

	database, err := db.NewSQLiteDBFromConfig(dbConfig)
	require.NoError(t, err)

	t.Cleanup(func() { database.Close() })

	return database, dbConfig
}
