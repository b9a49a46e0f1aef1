package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porton/gate-relay/internal/database"
)

// setupTestDB returns a migrated in-memory sqlite database private to the test.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(database.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestHandleNotFound(t *testing.T) {
	t.Run("no rows becomes nil without error", func(t *testing.T) {
		v := 1
		got, err := HandleNotFound(&v, sql.ErrNoRows)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		v := 1
		boom := errors.New("boom")
		got, err := HandleNotFound(&v, boom)
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, got)
	})

	t.Run("result is returned", func(t *testing.T) {
		v := 1
		got, err := HandleNotFound(&v, nil)
		assert.NoError(t, err)
		assert.Equal(t, &v, got)
	})
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.True(t, isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: access_codes.pin (1555)")))
	assert.False(t, isUniqueViolation(errors.New("no such table")))
}
