package database

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/jackc/pgx/v5"
)

// migrationLockID serializes migrators when several API replicas start at once
const migrationLockID = 7_341_002

const (
	createMigrationsTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			migration_name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`
	appliedMigrationsSQL = `SELECT migration_name FROM schema_migrations`
	recordMigrationSQL   = `INSERT INTO schema_migrations (migration_name) VALUES ($1)`
	migrationLockSQL     = `SELECT pg_advisory_xact_lock($1)`
)

// RunMigrations applies the top-level *.sql files of fsys in name order. Each
// file runs in its own transaction together with its schema_migrations row;
// files already recorded are skipped.
func (db *DB) RunMigrations(ctx context.Context, fsys fs.FS) error {
	if _, err := db.Exec(ctx, createMigrationsTableSQL); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := getMigrationFiles(fsys)
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	for _, name := range files {
		script, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		applied, err := db.applyMigration(ctx, name, string(script))
		if err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
		if applied {
			db.logger.Info("migration_applied", fmt.Sprintf("Applied migration %s", name), "", nil)
		}
	}
	return nil
}

func (db *DB) applyMigration(ctx context.Context, name, script string) (bool, error) {
	applied := false
	err := db.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, migrationLockSQL, migrationLockID); err != nil {
			return fmt.Errorf("lock: %w", err)
		}

		done, err := appliedMigrations(ctx, tx)
		if err != nil {
			return err
		}
		if done[name] {
			return nil
		}

		if _, err := tx.Exec(ctx, script); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, recordMigrationSQL, name); err != nil {
			return fmt.Errorf("record: %w", err)
		}
		applied = true
		return nil
	})
	return applied, err
}

func appliedMigrations(ctx context.Context, tx pgx.Tx) (map[string]bool, error) {
	rows, err := tx.Query(ctx, appliedMigrationsSQL)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}

	done := make(map[string]bool, len(names))
	for _, name := range names {
		done[name] = true
	}
	return done, nil
}

func getMigrationFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && path.Ext(entry.Name()) == ".sql" {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
