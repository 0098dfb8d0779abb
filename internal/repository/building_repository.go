package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/campus-navigator/internal/model"
)

const buildingColumns = "id, name, code, address, lat, lng, created_at"

// BuildingRepo encapsulates all queries on the `buildings` table.
type BuildingRepo struct {
	db *sql.DB
}

func NewBuildingRepo(db *sql.DB) *BuildingRepo { return &BuildingRepo{db: db} }

// Create inserts a building and fills in its ID and CreatedAt.
func (r *BuildingRepo) Create(ctx context.Context, b *model.Building) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO buildings (name, code, address, lat, lng) VALUES (?, ?, ?, ?, ?)",
		b.Name, b.Code, b.Address, b.Lat, b.Lng)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return r.db.QueryRowContext(ctx, "SELECT created_at FROM buildings WHERE id = ?", b.ID).Scan(&b.CreatedAt)
}

// GetByID returns ErrBuildingNotFound when no row matches.
func (r *BuildingRepo) GetByID(ctx context.Context, id uint64) (*model.Building, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+buildingColumns+" FROM buildings WHERE id = ?", id)
	return scanBuilding(row)
}

// First returns the oldest building (lowest id), or ErrBuildingNotFound
// when the table is empty.
func (r *BuildingRepo) First(ctx context.Context) (*model.Building, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+buildingColumns+" FROM buildings ORDER BY id LIMIT 1")
	return scanBuilding(row)
}

// List returns buildings ordered by id.  A non-empty q filters on name,
// code and address.
func (r *BuildingRepo) List(ctx context.Context, q string) ([]model.Building, error) {
	if q == "" {
		return r.query(ctx, "SELECT "+buildingColumns+" FROM buildings ORDER BY id")
	}
	p := containsPattern(q)
	return r.query(ctx, `SELECT `+buildingColumns+` FROM buildings
		WHERE LOWER(name) LIKE ? OR LOWER(code) LIKE ? OR LOWER(address) LIKE ?
		ORDER BY id`, p, p, p)
}

// SearchByName returns buildings whose name contains q.
func (r *BuildingRepo) SearchByName(ctx context.Context, q string) ([]model.Building, error) {
	return r.query(ctx, "SELECT "+buildingColumns+" FROM buildings WHERE LOWER(name) LIKE ? ORDER BY id", containsPattern(q))
}

// Delete removes a building; its rooms and POIs go with it through the
// foreign keys.
func (r *BuildingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM buildings WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBuildingNotFound
	}
	return nil
}

func (r *BuildingRepo) query(ctx context.Context, q string, args ...any) ([]model.Building, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Building{}
	for rows.Next() {
		var b model.Building
		if err := rows.Scan(&b.ID, &b.Name, &b.Code, &b.Address, &b.Lat, &b.Lng, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBuilding(row *sql.Row) (*model.Building, error) {
	var b model.Building
	if err := row.Scan(&b.ID, &b.Name, &b.Code, &b.Address, &b.Lat, &b.Lng, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBuildingNotFound
		}
		return nil, err
	}
	return &b, nil
}
