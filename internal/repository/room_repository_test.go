package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-navigator/internal/model"
)

var roomCols = []string{"id", "building_id", "number", "floor", "description", "name", "code"}

func TestRoomCreate(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec("INSERT INTO rooms").WithArgs(uint64(1), "101", 1, "Lecture hall").
		WillReturnResult(sqlmock.NewResult(11, 1))

	room := &model.Room{BuildingID: 1, Number: "101", Floor: 1, Description: "Lecture hall"}
	require.NoError(t, NewRoomRepo(db).Create(context.Background(), room))
	assert.Equal(t, uint64(11), room.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomCreateUnknownBuilding(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec("INSERT INTO rooms").WillReturnError(mysqlErr(1452))

	err := NewRoomRepo(db).Create(context.Background(), &model.Room{BuildingID: 99, Number: "1"})
	assert.ErrorIs(t, err, ErrBuildingNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomSearchByNumber(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`JOIN buildings b ON b.id = r.building_id WHERE LOWER\(r.number\) LIKE \?`).WithArgs("%101%").
		WillReturnRows(sqlmock.NewRows(roomCols).AddRow(5, 1, "101", 1, "", "Block A", "A"))

	got, err := NewRoomRepo(db).SearchByNumber(context.Background(), "101")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A – 101", got[0].Label())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomListByBuildingAndQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	bid := uint64(3)
	mock.ExpectQuery(`WHERE r.building_id = \? AND \(LOWER\(r.number\) LIKE \? OR LOWER\(r.description\) LIKE \?\) ORDER BY r.id`).
		WithArgs(bid, "%lab%", "%lab%").
		WillReturnRows(sqlmock.NewRows(roomCols))

	got, err := NewRoomRepo(db).List(context.Background(), &bid, "Lab")
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomGetByIDNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("WHERE r.id = ?").WithArgs(uint64(8)).WillReturnRows(sqlmock.NewRows(roomCols))

	_, err := NewRoomRepo(db).GetByID(context.Background(), 8)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
