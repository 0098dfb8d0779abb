package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementsSplitsSchema(t *testing.T) {
	stmts := statements(schema)
	require.Len(t, stmts, 6)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, stmts[5], "UNIQUE KEY uq_favorite_pois_user_poi (user_id, poi_id)")
	for _, s := range stmts {
		assert.NotContains(t, s, "--")
	}
}

func TestSchemaCascades(t *testing.T) {
	assert.Contains(t, schema, "REFERENCES buildings (id) ON DELETE CASCADE")
	assert.Contains(t, schema, "REFERENCES pois (id) ON DELETE CASCADE")
	assert.Contains(t, schema, "REFERENCES users (id) ON DELETE CASCADE")
}

func TestMigrateRunsEveryStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"users", "refresh_tokens", "buildings", "rooms", "pois", "favorite_pois"} {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS " + table + " ").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, Migrate(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(errors.New("access denied"))

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 1")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDSN(t *testing.T) {
	dsn := DSN("campus", "pw", "db", "3306", "campus")
	assert.Contains(t, dsn, "campus:pw@tcp(db:3306)/campus")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}
