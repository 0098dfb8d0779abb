package model

import (
	"fmt"
	"time"
)

// Building represents a campus building shown on the map.  Rooms and
// points of interest hang off a building and are removed together with
// it by the foreign keys in the schema.
//
// Fields:
//
//	ID        – primary key identifier.
//	Name      – human readable name (may be empty).
//	Code      – short code such as "A" or "Main" (may be empty).
//	Address   – postal address (may be empty).
//	Lat, Lng  – map coordinates, always present.
//	CreatedAt – timestamp of creation.
type Building struct {
	ID        uint64    // buildings.id
	Name      string    // buildings.name
	Code      string    // buildings.code
	Address   string    // buildings.address
	Lat       float64   // buildings.lat
	Lng       float64   // buildings.lng
	CreatedAt time.Time // buildings.created_at
}

// DisplayName returns the name, the code when the name is empty, and
// "Building #<id>" when both are empty.
func (b Building) DisplayName() string {
	if b.Name != "" {
		return b.Name
	}
	if b.Code != "" {
		return b.Code
	}
	return fmt.Sprintf("Building #%d", b.ID)
}
