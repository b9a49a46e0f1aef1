package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Connect(DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("0001_init.sql")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = parseVersion("0000_base.sql")
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	_, err = parseVersion("init.sql")
	assert.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Contains(t, sqliteDSN("file:gate.db"), "file:gate.db?_pragma=busy_timeout(5000)")
	assert.Contains(t, sqliteDSN("file:x?mode=memory"), "file:x?mode=memory&_pragma=")
	assert.Equal(t, "file:x?_pragma=foreign_keys(1)", sqliteDSN("file:x?_pragma=foreign_keys(1)"))
}

func TestLoadMigrations(t *testing.T) {
	for _, driver := range []string{DriverPostgres, DriverSQLite} {
		ms, err := loadMigrations(driver)
		require.NoError(t, err, driver)
		require.NotEmpty(t, ms, driver)
		assert.Equal(t, 1, ms[0].version)
	}

	_, err := loadMigrations("mysql")
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, db.Migrate(ctx))
	// Second run is a no-op.
	require.NoError(t, db.Migrate(ctx))

	var count int
	require.NoError(t, db.GetContext(ctx, &count, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(t, 1, count)

	_, err := db.ExecContext(ctx, "SELECT pin, days FROM access_codes")
	assert.NoError(t, err)
	_, err = db.ExecContext(ctx, "SELECT id, occurred_at FROM access_logs")
	assert.NoError(t, err)
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.ExecContext(ctx, "CREATE TABLE items (name TEXT)")
	require.NoError(t, err)

	t.Run("commits on success", func(t *testing.T) {
		err := db.WithTx(ctx, func(tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx, "INSERT INTO items (name) VALUES ('a')")
			return err
		})
		require.NoError(t, err)

		var n int
		require.NoError(t, db.GetContext(ctx, &n, "SELECT COUNT(*) FROM items"))
		assert.Equal(t, 1, n)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		sentinel := fmt.Errorf("abort")
		err := db.WithTx(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, "INSERT INTO items (name) VALUES ('b')"); err != nil {
				return err
			}
			return sentinel
		})
		assert.ErrorIs(t, err, sentinel)

		var n int
		require.NoError(t, db.GetContext(ctx, &n, "SELECT COUNT(*) FROM items"))
		assert.Equal(t, 1, n)
	})
}
