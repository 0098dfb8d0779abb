package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/campus-navigator/internal/model"
)

const poiColumns = "id, building_id, title, type, lat, lng, info, created_at"

// PoiRepo encapsulates all queries on the `pois` table.
type PoiRepo struct {
	db *sql.DB
}

func NewPoiRepo(db *sql.DB) *PoiRepo { return &PoiRepo{db: db} }

// Create inserts a POI and fills in its ID.  A building_id that does not
// reference an existing building yields ErrBuildingNotFound.
func (r *PoiRepo) Create(ctx context.Context, p *model.Poi) error {
	var buildingID sql.NullInt64
	if p.BuildingID != nil {
		buildingID = sql.NullInt64{Int64: int64(*p.BuildingID), Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO pois (building_id, title, type, lat, lng, info) VALUES (?, ?, ?, ?, ?, ?)",
		buildingID, p.Title, p.Type, p.Lat, p.Lng, p.Info)
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
	p.ID = uint64(id)
	return nil
}

// GetByID returns ErrPoiNotFound when no row matches.
func (r *PoiRepo) GetByID(ctx context.Context, id uint64) (*model.Poi, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+poiColumns+" FROM pois WHERE id = ?", id)
	p, err := scanPoi(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPoiNotFound
	}
	return p, err
}

// ListAll returns every POI ordered by id.
func (r *PoiRepo) ListAll(ctx context.Context) ([]model.Poi, error) {
	return r.query(ctx, "SELECT "+poiColumns+" FROM pois ORDER BY id")
}

// SearchByTitle returns POIs whose title contains q.
func (r *PoiRepo) SearchByTitle(ctx context.Context, q string) ([]model.Poi, error) {
	return r.query(ctx, "SELECT "+poiColumns+" FROM pois WHERE LOWER(title) LIKE ? ORDER BY id", containsPattern(q))
}

// Delete removes a POI; favorites referencing it are removed by the
// foreign key.
func (r *PoiRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM pois WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPoiNotFound
	}
	return nil
}

func (r *PoiRepo) query(ctx context.Context, q string, args ...any) ([]model.Poi, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Poi{}
	for rows.Next() {
		p, err := scanPoi(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoi(s rowScanner) (*model.Poi, error) {
	var (
		p          model.Poi
		buildingID sql.NullInt64
	)
	if err := s.Scan(&p.ID, &buildingID, &p.Title, &p.Type, &p.Lat, &p.Lng, &p.Info, &p.CreatedAt); err != nil {
		return nil, err
	}
	if buildingID.Valid {
		id := uint64(buildingID.Int64)
		p.BuildingID = &id
	}
	return &p, nil
}
