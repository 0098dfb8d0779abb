package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/campus-navigator/internal/model"
)

// FavoriteRepo stores the (user, poi) favorite pairs.
type FavoriteRepo struct {
	db *sql.DB
}

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

// Toggle flips the favorite state of (userID, poiID) inside one
// transaction and reports the new state.  An existing row is deleted;
// otherwise a row is inserted.  When a concurrent toggle wins the insert
// (duplicate key) or the transaction is chosen as deadlock victim,
// ErrConflict is returned and nothing is changed.  A POI that vanished
// in the meantime yields ErrPoiNotFound.
func (r *FavoriteRepo) Toggle(ctx context.Context, userID, poiID uint64) (favorited bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
		if err != nil && isDeadlock(err) {
			err = ErrConflict
		}
	}()

	res, err := tx.ExecContext(ctx, "DELETE FROM favorite_pois WHERE user_id = ? AND poi_id = ?", userID, poiID)
	if err != nil {
		return false, classifyFavoriteErr(err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}
	if _, err = tx.ExecContext(ctx, "INSERT INTO favorite_pois (user_id, poi_id) VALUES (?, ?)", userID, poiID); err != nil {
		return false, classifyFavoriteErr(err)
	}
	return true, nil
}

func classifyFavoriteErr(err error) error {
	switch {
	case isDuplicateKey(err), isDeadlock(err):
		return ErrConflict
	case isMissingParent(err):
		return ErrPoiNotFound
	}
	return err
}

// ListPoisByUser returns the POIs favorited by userID in the order they
// were added.
func (r *FavoriteRepo) ListPoisByUser(ctx context.Context, userID uint64) ([]model.Poi, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT p.id, p.building_id, p.title, p.type, p.lat, p.lng, p.info, p.created_at
		FROM favorite_pois f
		JOIN pois p ON p.id = f.poi_id
		WHERE f.user_id = ?
		ORDER BY f.id`, userID)
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
