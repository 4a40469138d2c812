package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/goran-ethernal/StakeIndexor/internal/logger"
	"github.com/goran-ethernal/StakeIndexor/pkg/config"
	migrate "github.com/rubenv/sql-migrate"
)

const (
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"
)

// Migration is one embedded SQL file. The Down section comes first, followed by
// the "-- +migrate Up" marker and the Up section.
type Migration struct {
	ID  string
	SQL string
}

// RunMigrations opens the database described by cfg and applies all pending migrations.
func RunMigrations(cfg config.DatabaseConfig, migrations []Migration) error {
	db, err := NewSQLiteDBFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("error creating DB: %w", err)
	}
	defer db.Close()

	return RunMigrationsDB(logger.GetDefaultLogger(), db, migrations)
}

// RunMigrationsDB applies all pending migrations on an open database.
func RunMigrationsDB(log *logger.Logger, db *sql.DB, migrations []Migration) error {
	source, err := memorySource(migrations)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(source.Migrations))
	for _, m := range source.Migrations {
		ids = append(ids, m.Id)
	}

	log.Debugf("running migrations: %s", strings.Join(ids, ", "))

	n, err := migrate.Exec(db, "sqlite3", source, migrate.Up)
	if err != nil {
		return fmt.Errorf("error executing migrations %s: %w", strings.Join(ids, ", "), err)
	}

	log.Infof("successfully ran %d migrations from: %s", n, strings.Join(ids, ", "))
	return nil
}

func memorySource(migrations []Migration) (*migrate.MemoryMigrationSource, error) {
	source := &migrate.MemoryMigrationSource{Migrations: make([]*migrate.Migration, 0, len(migrations))}

	for _, m := range migrations {
		down, up, found := strings.Cut(m.SQL, upMarker)
		if !found {
			return nil, fmt.Errorf("migration %s missing '%s' separator", m.ID, upMarker)
		}

		if idx := strings.Index(down, downMarker); idx != -1 {
			down = down[idx+len(downMarker):]
		}

		source.Migrations = append(source.Migrations, &migrate.Migration{
			Id:   m.ID,
			Up:   []string{strings.TrimSpace(up)},
			Down: []string{strings.TrimSpace(down)},
		})
	}

	return source, nil
}
