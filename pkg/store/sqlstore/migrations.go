package sqlstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// LatestSchemaVersion is the schema version this code reads and writes.
const LatestSchemaVersion = 3

type schemaVersionRow struct {
	Version   int   `gorm:"column:version;primaryKey;autoIncrement:false"`
	AppliedAt int64 `gorm:"column:applied_at;not null"`
}

func (schemaVersionRow) TableName() string { return "schema_versions" }

type migration struct {
	version int
	name    string
	up      func(tx *gorm.DB) error
}

var migrations = []migration{
	{
		version: 1,
		name:    "create_atoms",
		up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&atomRow{})
		},
	},
	{
		version: 2,
		name:    "create_tags",
		up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&tagRow{}, &atomTagRow{})
		},
	},
	{
		version: 3,
		name:    "create_workspace_nodes",
		up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&workspaceNodeRow{})
		},
	},
}

// SchemaVersion reports the highest applied migration, or 0 for an empty database.
func (d *DB) SchemaVersion(ctx context.Context) (int, error) {
	gdb := d.gorm.WithContext(ctx)
	if !gdb.Migrator().HasTable(&schemaVersionRow{}) {
		return 0, nil
	}
	var version int
	if err := gdb.Model(&schemaVersionRow{}).Select("COALESCE(MAX(version), 0)").Scan(&version).Error; err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Migrate applies every pending migration. Running it on an up-to-date database is a no-op.
func (d *DB) Migrate(ctx context.Context) error {
	if err := d.gorm.WithContext(ctx).AutoMigrate(&schemaVersionRow{}); err != nil {
		return fmt.Errorf("failed to create schema_versions: %w", err)
	}
	current, err := d.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if current > LatestSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, LatestSchemaVersion)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		err := d.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := m.up(tx); err != nil {
				return err
			}
			return tx.Create(&schemaVersionRow{Version: m.version, AppliedAt: d.now().UnixMilli()}).Error
		})
		if err != nil {
			d.log.Error().Str("event", "schema_migrate").Str("module", "db").Str("status", "error").
				Int("version", m.version).Str("migration", m.name).Err(err).Send()
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
		d.log.Info().Str("event", "schema_migrate").Str("module", "db").Str("status", "ok").
			Int("version", m.version).Str("migration", m.name).Send()
	}
	return nil
}
