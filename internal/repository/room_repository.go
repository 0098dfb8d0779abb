package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/campus-navigator/internal/model"
)

// Rooms are always read together with the code and name of their
// building so that they can be labelled.
const roomSelect = `SELECT r.id, r.building_id, r.number, r.floor, r.description, b.name, b.code
	FROM rooms r JOIN buildings b ON b.id = r.building_id`

// RoomRepo encapsulates all queries on the `rooms` table.
type RoomRepo struct {
	db *sql.DB
}

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// Create inserts a room.  ErrBuildingNotFound is returned when the
// building does not exist.
func (r *RoomRepo) Create(ctx context.Context, room *model.Room) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO rooms (building_id, number, floor, description) VALUES (?, ?, ?, ?)",
		room.BuildingID, room.Number, room.Floor, room.Description)
	if err != nil {
		if isMissingParent(err) {
			return ErrBuildingNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	room.ID = uint64(id)
	return nil
}

// GetByID returns ErrRoomNotFound when no row matches.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	var room model.Room
	err := r.db.QueryRowContext(ctx, roomSelect+" WHERE r.id = ?", id).
		Scan(&room.ID, &room.BuildingID, &room.Number, &room.Floor, &room.Description, &room.BuildingName, &room.BuildingCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// List returns rooms ordered by id, optionally restricted to one
// building and filtered on number and description.
func (r *RoomRepo) List(ctx context.Context, buildingID *uint64, q string) ([]model.Room, error) {
	var (
		where []string
		args  []any
	)
	if buildingID != nil {
		where = append(where, "r.building_id = ?")
		args = append(args, *buildingID)
	}
	if q != "" {
		p := containsPattern(q)
		where = append(where, "(LOWER(r.number) LIKE ? OR LOWER(r.description) LIKE ?)")
		args = append(args, p, p)
	}
	stmt := roomSelect
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	return r.query(ctx, stmt+" ORDER BY r.id", args...)
}

// SearchByNumber returns rooms whose number contains q.
func (r *RoomRepo) SearchByNumber(ctx context.Context, q string) ([]model.Room, error) {
	return r.query(ctx, roomSelect+" WHERE LOWER(r.number) LIKE ? ORDER BY r.id", containsPattern(q))
}

func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (r *RoomRepo) query(ctx context.Context, q string, args ...any) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Room{}
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(&room.ID, &room.BuildingID, &room.Number, &room.Floor, &room.Description, &room.BuildingName, &room.BuildingCode); err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}
