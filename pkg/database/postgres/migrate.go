package postgres

import (
	"context"
	"io/fs"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	pkgerrors "github.com/pkg/errors"
)

const migrationsTable = `
    CREATE TABLE IF NOT EXISTS schema_migrations (
        version    TEXT PRIMARY KEY,
        applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )
`

// PendingMigrations lists the *.sql files in fsys that are not yet recorded as applied,
// in lexical order.
func PendingMigrations(ctx context.Context, db *sqlx.DB, fsys fs.FS) ([]string, error) {
	if _, err := db.ExecContext(ctx, migrationsTable); err != nil {
		return nil, pkgerrors.Wrap(err, "create schema_migrations")
	}

	var applied []string
	if err := db.SelectContext(ctx, &applied, `SELECT version FROM schema_migrations`); err != nil {
		return nil, pkgerrors.Wrap(err, "read schema_migrations")
	}
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list migrations")
	}
	sort.Strings(files)

	var pending []string
	for _, f := range files {
		if !done[strings.TrimSuffix(f, ".sql")] {
			pending = append(pending, f)
		}
	}
	return pending, nil
}

// Migrate applies every pending migration, each in its own transaction, and returns the
// versions it applied.
func Migrate(ctx context.Context, db *sqlx.DB, fsys fs.FS) ([]string, error) {
	pending, err := PendingMigrations(ctx, db, fsys)
	if err != nil {
		return nil, err
	}

	tm := NewTxManager(db)
	var applied []string
	for _, file := range pending {
		body, err := fs.ReadFile(fsys, file)
		if err != nil {
			return applied, pkgerrors.Wrapf(err, "read %s", file)
		}
		version := strings.TrimSuffix(file, ".sql")

		err = tm.WithinTx(ctx, func(ctx context.Context) error {
			ext := Ext(ctx, db)
			if _, err := ext.ExecContext(ctx, string(body)); err != nil {
				return pkgerrors.Wrapf(err, "apply %s", file)
			}
			_, err := ext.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
			return pkgerrors.Wrapf(err, "record %s", file)
		})
		if err != nil {
			return applied, err
		}
		applied = append(applied, version)
	}
	return applied, nil
}
