package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-navigator/internal/model"
)

var poiCols = []string{"id", "building_id", "title", "type", "lat", "lng", "info", "created_at"}

func TestPoiCreateWithoutBuilding(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec("INSERT INTO pois").
		WithArgs(nil, "Canteen", "canteen", 55.75, 37.61, "").
		WillReturnResult(sqlmock.NewResult(21, 1))

	p := &model.Poi{Title: "Canteen", Type: "canteen", Lat: 55.75, Lng: 37.61}
	require.NoError(t, NewPoiRepo(db).Create(context.Background(), p))
	assert.Equal(t, uint64(21), p.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPoiCreateWithBuilding(t *testing.T) {
	db, mock := setupMockDB(t)
	bid := uint64(2)
	mock.ExpectExec("INSERT INTO pois").
		WithArgs(int64(2), "Entrance", "entrance", 55.76, 37.61, "Yard side").
		WillReturnResult(sqlmock.NewResult(22, 1))

	p := &model.Poi{BuildingID: &bid, Title: "Entrance", Type: "entrance", Lat: 55.76, Lng: 37.61, Info: "Yard side"}
	require.NoError(t, NewPoiRepo(db).Create(context.Background(), p))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPoiCreateUnknownBuilding(t *testing.T) {
	db, mock := setupMockDB(t)
	bid := uint64(404)
	mock.ExpectExec("INSERT INTO pois").WillReturnError(mysqlErr(1452))

	err := NewPoiRepo(db).Create(context.Background(), &model.Poi{BuildingID: &bid, Title: "x", Type: "y"})
	assert.ErrorIs(t, err, ErrBuildingNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPoiGetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("FROM pois WHERE id = ?").WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(poiCols).AddRow(1, 2, "Entrance", "entrance", 55.7505, 37.6105, "", time.Now()))
	mock.ExpectQuery("FROM pois WHERE id = ?").WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows(poiCols))

	repo := NewPoiRepo(db)
	p, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, p.BuildingID)
	assert.Equal(t, uint64(2), *p.BuildingID)
	assert.Equal(t, 55.7505, p.Lat)

	_, err = repo.GetByID(context.Background(), 2)
	assert.ErrorIs(t, err, ErrPoiNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPoiListAllAndSearch(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now()
	mock.ExpectQuery("FROM pois ORDER BY id").
		WillReturnRows(sqlmock.NewRows(poiCols).
			AddRow(1, nil, "Canteen", "canteen", 55.1, 37.1, "", now).
			AddRow(2, 1, "Entrance", "entrance", 55.2, 37.2, "North", now))
	mock.ExpectQuery(`WHERE LOWER\(title\) LIKE \?`).WithArgs("%entr%").
		WillReturnRows(sqlmock.NewRows(poiCols).AddRow(2, 1, "Entrance", "entrance", 55.2, 37.2, "North", now))

	repo := NewPoiRepo(db)
	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := repo.SearchByTitle(context.Background(), "ENTR")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "North", found[0].Info)
	require.NoError(t, mock.ExpectationsWereMet())
}
