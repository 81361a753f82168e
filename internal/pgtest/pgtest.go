// Package pgtest opens databases for repository tests.
//
// Mock needs nothing external. Open runs against a real Postgres named by
// STOREFRONT_TEST_DATABASE_URL and skips the test when it is unset. Packages using Open
// share that database, so run them with -p 1.
package pgtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-storefront-service/migrations"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
)

const EnvDatabaseURL = "STOREFRONT_TEST_DATABASE_URL"

// Mock returns a sqlx handle over sqlmock using the pgx bind style. Unmet expectations
// fail the test at cleanup.
func Mock(t testing.TB) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return sqlx.NewDb(db, "pgx"), mock
}

// Open connects to the test database, applies migrations and empties every table.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv(EnvDatabaseURL)
	if dsn == "" {
		t.Skipf("%s not set", EnvDatabaseURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = postgres.Migrate(ctx, db, migrations.FS)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx,
		`TRUNCATE inventory_movements, payments, order_items, orders, cart_items, products, users`)
	require.NoError(t, err)
	return db
}

func SeedUser(t testing.TB, db *sqlx.DB) string {
	t.Helper()
	id := uuid.New().String()
	_, err := db.Exec(`INSERT INTO users (id, email, password_hash) VALUES ($1, $2, 'x')`,
		id, id+"@example.com")
	require.NoError(t, err)
	return id
}

func SeedProduct(t testing.TB, db *sqlx.DB, stock int) string {
	t.Helper()
	id := uuid.New().String()
	_, err := db.Exec(`INSERT INTO products (id, name, price, stock) VALUES ($1, 'Tee', 10, $2)`, id, stock)
	require.NoError(t, err)
	return id
}
