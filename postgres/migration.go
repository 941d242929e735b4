// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package postgres

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/diffeo/go-restler/entity"
	"github.com/lib/pq"
	"github.com/rubenv/sql-migrate"
)

// This file maintains the database migration code.  See
// https://github.com/rubenv/sql-migrate for details of how migrations
// are tracked.  There is one migration per kind, creating its table;
// the migrations are generated from the kind definitions rather than
// stored as files.  This runs "outside" the normal entity flow, either
// at initial startup or from an external tool.

// migrationSource builds the migrations for a list of initialized
// kinds.  Migration IDs are numbered in kind order.
func migrationSource(kinds []*entity.Kind) *migrate.MemoryMigrationSource {
	source := &migrate.MemoryMigrationSource{}
	for i, kind := range kinds {
		source.Migrations = append(source.Migrations, &migrate.Migration{
			Id:   fmt.Sprintf("%d_create_%s", i+1, kind.Table),
			Up:   []string{createTable(kind)},
			Down: []string{"DROP TABLE " + pq.QuoteIdentifier(kind.Table)},
		})
	}
	return source
}

// sqlType returns the PostgreSQL type of a column.
func sqlType(kind *entity.Kind, column entity.Column) string {
	if generated, ok := kind.GeneratedKey(); ok && generated.Name == column.Name && column.Type == entity.Integer {
		return "BIGSERIAL"
	}
	switch column.Type {
	case entity.Integer:
		return "BIGINT"
	case entity.Decimal:
		return "NUMERIC"
	case entity.Float:
		return "DOUBLE PRECISION"
	case entity.Boolean:
		return "BOOLEAN"
	case entity.Timestamp:
		return "TIMESTAMP WITH TIME ZONE"
	case entity.DateType:
		return "DATE"
	case entity.UUID:
		return "UUID"
	}
	return "TEXT"
}

// createTable returns the CREATE TABLE statement for a kind.
func createTable(kind *entity.Kind) string {
	var defs []string
	for _, column := range kind.Columns {
		defs = append(defs, pq.QuoteIdentifier(column.Name)+" "+sqlType(kind, column))
	}
	defs = append(defs, "PRIMARY KEY("+quoteAll(kind.PrimaryKey)+")")
	return "CREATE TABLE " + pq.QuoteIdentifier(kind.Table) + "(" + strings.Join(defs, ", ") + ")"
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = pq.QuoteIdentifier(name)
	}
	return strings.Join(quoted, ", ")
}

// Upgrade upgrades a database to include tables for all of kinds,
// which must already be initialized.
func Upgrade(db *sql.DB, kinds []*entity.Kind) error {
	_, err := migrate.Exec(db, "postgres", migrationSource(kinds), migrate.Up)
	return err
}

// Drop clears a database by running all of the migrations in reverse,
// ultimately resulting in dropping all of the tables.
func Drop(db *sql.DB, kinds []*entity.Kind) error {
	_, err := migrate.Exec(db, "postgres", migrationSource(kinds), migrate.Down)
	return err
}
