package model

import "time"

// Poi is a point of interest: a canteen, a dean's office, an entrance,
// a lift.  Type is a free-text label chosen by the administrator.
// BuildingID is nil for points that do not belong to any building.
type Poi struct {
	ID         uint64    // pois.id
	BuildingID *uint64   // pois.building_id (nullable)
	Title      string    // pois.title
	Type       string    // pois.type
	Lat        float64   // pois.lat
	Lng        float64   // pois.lng
	Info       string    // pois.info
	CreatedAt  time.Time // pois.created_at
}

// FavoritePoi marks a POI as a favorite of one user.  The pair
// (UserID, PoiID) is unique; rows are created and deleted by the toggle
// and never updated.
type FavoritePoi struct {
	ID      uint64    // favorite_pois.id
	UserID  uint64    // favorite_pois.user_id
	PoiID   uint64    // favorite_pois.poi_id
	AddedAt time.Time // favorite_pois.added_at
}
