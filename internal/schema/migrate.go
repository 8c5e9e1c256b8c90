package schema

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/medflow/auth-starter/internal/database"
)

// Migrate reconciles the live database with the declared shape. Missing
// tables are created, declared columns absent from a live table are added.
// Changes are additive only: nothing is dropped or retyped here.
func Migrate(ctx context.Context, db *database.DB) error {
	for _, table := range Tables {
		if err := migrateTable(ctx, db, table); err != nil {
			return fmt.Errorf("migrate %s: %w", table.Name, err)
		}
	}
	return nil
}

func migrateTable(ctx context.Context, db *database.DB, table Table) error {
	if _, err := db.ExecContext(ctx, table.CreateDDL()); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	live, err := liveColumns(ctx, db, table.Name)
	if err != nil {
		return fmt.Errorf("inspect columns: %w", err)
	}

	for _, col := range table.Columns {
		if _, ok := live[col.Name]; ok {
			continue
		}
		if _, err := db.ExecContext(ctx, table.AddColumnDDL(col)); err != nil {
			return fmt.Errorf("add column %s: %w", col.Name, err)
		}
		log.Info().Str("table", table.Name).Str("column", col.Name).Msg("added missing column")
	}

	for _, stmt := range table.IndexDDL() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}

func liveColumns(ctx context.Context, db *database.DB, tableName string) (map[string]struct{}, error) {
	var names []string
	err := db.SelectContext(ctx, &names, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
	`, tableName)
	if err != nil {
		return nil, err
	}

	cols := make(map[string]struct{}, len(names))
	for _, n := range names {
		cols[n] = struct{}{}
	}
	return cols, nil
}
