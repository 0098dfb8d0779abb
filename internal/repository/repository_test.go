package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func mysqlErr(n uint16) error { return &mysql.MySQLError{Number: n, Message: "test"} }

func TestContainsPatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, "%main%", containsPattern("Main"))
	assert.Equal(t, `%50\%\_off%`, containsPattern("50%_off"))
	assert.Equal(t, `%a\\b%`, containsPattern(`a\b`))
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, isDuplicateKey(mysqlErr(1062)))
	assert.True(t, isDeadlock(mysqlErr(1213)))
	assert.True(t, isMissingParent(mysqlErr(1452)))
	assert.False(t, isDuplicateKey(sql.ErrConnDone))
}

func TestFavoriteToggle(t *testing.T) {
	ctx := context.Background()

	t.Run("absent pair is inserted", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM favorite_pois").WithArgs(uint64(1), uint64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO favorite_pois").WithArgs(uint64(1), uint64(9)).WillReturnResult(sqlmock.NewResult(5, 1))
		mock.ExpectCommit()

		fav, err := NewFavoriteRepo(db).Toggle(ctx, 1, 9)
		require.NoError(t, err)
		assert.True(t, fav)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("present pair is deleted", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM favorite_pois").WithArgs(uint64(1), uint64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		fav, err := NewFavoriteRepo(db).Toggle(ctx, 1, 9)
		require.NoError(t, err)
		assert.False(t, fav)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost insert race is a conflict", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM favorite_pois").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO favorite_pois").WillReturnError(mysqlErr(1062))
		mock.ExpectRollback()

		_, err := NewFavoriteRepo(db).Toggle(ctx, 1, 9)
		assert.ErrorIs(t, err, ErrConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("vanished poi", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM favorite_pois").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO favorite_pois").WillReturnError(mysqlErr(1452))
		mock.ExpectRollback()

		_, err := NewFavoriteRepo(db).Toggle(ctx, 1, 9)
		assert.ErrorIs(t, err, ErrPoiNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFavoriteListPoisByUser(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "building_id", "title", "type", "lat", "lng", "info", "created_at"}).
		AddRow(3, nil, "Main entrance", "entrance", 55.7601, 37.6101, "", now)
	mock.ExpectQuery("FROM favorite_pois f").WithArgs(uint64(7)).WillReturnRows(rows)

	pois, err := NewFavoriteRepo(db).ListPoisByUser(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, pois, 1)
	assert.Equal(t, uint64(3), pois[0].ID)
	assert.Nil(t, pois[0].BuildingID)
	assert.Equal(t, "Main entrance", pois[0].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}
