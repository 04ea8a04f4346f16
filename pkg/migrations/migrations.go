package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrations is the registry every migration file adds itself to.
var Migrations = migrate.NewMigrations()

// NewMigrator returns a migrator over the catalog schema.
func NewMigrator(db *bun.DB) *migrate.Migrator {
	return migrate.NewMigrator(db, Migrations)
}

// BringUpToDate applies every pending migration as one group. The returned
// group has a zero ID when nothing was pending.
func BringUpToDate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	m := NewMigrator(db)
	if err := m.Init(ctx); err != nil {
		return nil, errors.Wrap(err, "init migration tables")
	}

	group, err := m.Migrate(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "apply migrations")
	}
	return group, nil
}
