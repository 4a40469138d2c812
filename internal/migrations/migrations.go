package migrations

import (
	_ "embed"

	"github.com/goran-ethernal/StakeIndexor/internal/db"
	"github.com/goran-ethernal/StakeIndexor/pkg/config"
)

//go:embed 001_sync_state.sql
var mig001 string

//go:embed 002_positions.sql
var mig002 string

// All returns the schema migrations of the indexer database in order.
func All() []db.Migration {
	return []db.Migration{
		{ID: "001_sync_state.sql", SQL: mig001},
		{ID: "002_positions.sql", SQL: mig002},
	}
}

// RunMigrations brings the indexer database described by cfg up to date.
func RunMigrations(cfg config.DatabaseConfig) error {
	return db.RunMigrations(cfg, All())
}
