package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var userCols = []string{"id", "username", "password_hash", "is_superuser", "is_active", "created_at", "updated_at"}

func TestUserCreateDuplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec("INSERT INTO users").WithArgs("alice", sqlmock.AnyArg(), false).WillReturnError(mysqlErr(1062))

	_, err := NewUserRepo(db).Create(context.Background(), " alice ", "pw", false, bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrUsernameExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByUsernameNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("FROM users WHERE username = ?").WithArgs("ghost").WillReturnRows(sqlmock.NewRows(userCols))

	_, err := NewUserRepo(db).GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSuperuserCreatesMissingAccount(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("FROM users WHERE username = ?").WithArgs("admin").WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectExec("INSERT INTO users").WithArgs("admin", sqlmock.AnyArg(), true).WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := NewUserRepo(db).EnsureSuperuser(context.Background(), "admin", "pw", bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSuperuserPromotesExistingAccount(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now()
	mock.ExpectQuery("FROM users WHERE username = ?").WithArgs("admin").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(5, "admin", "hash", false, true, now, now))
	mock.ExpectExec("UPDATE users SET is_superuser = 1").WithArgs(uint64(5)).WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := NewUserRepo(db).EnsureSuperuser(context.Background(), "admin", "pw", bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateRefresh(t *testing.T) {
	db, mock := setupMockDB(t)
	future := time.Now().UTC().Add(time.Hour)
	mock.ExpectQuery("FROM refresh_tokens WHERE token_hash = ?").WithArgs("good").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).AddRow(3, future, nil))
	mock.ExpectQuery("FROM refresh_tokens WHERE token_hash = ?").WithArgs("revoked").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).AddRow(3, future, time.Now()))
	mock.ExpectQuery("FROM refresh_tokens WHERE token_hash = ?").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}))

	repo := NewTokenRepo(db)
	uid, err := repo.ValidateRefresh(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), uid)

	_, err = repo.ValidateRefresh(context.Background(), "revoked")
	assert.ErrorIs(t, err, ErrRefreshInvalid)
	_, err = repo.ValidateRefresh(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRefreshInvalid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateRefresh(t *testing.T) {
	exp := time.Now().UTC().Add(24 * time.Hour)

	t.Run("success", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").WithArgs("old", uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO refresh_tokens").WithArgs(uint64(3), "new", exp).WillReturnResult(sqlmock.NewResult(9, 1))
		mock.ExpectCommit()

		require.NoError(t, NewTokenRepo(db).Rotate(context.Background(), 3, "old", "new", exp))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already revoked", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := NewTokenRepo(db).Rotate(context.Background(), 3, "old", "new", exp)
		assert.ErrorIs(t, err, ErrRefreshInvalid)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
