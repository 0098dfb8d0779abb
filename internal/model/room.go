package model

import "fmt"

// DefaultFloor is used when a room is created without a floor.
const DefaultFloor = 1

// Room is a numbered room inside a building.  BuildingName and
// BuildingCode are not columns of `rooms`; repositories fill them from a
// join so that the room can be labelled without a second query.
type Room struct {
	ID           uint64 // rooms.id
	BuildingID   uint64 // rooms.building_id
	Number       string // rooms.number
	Floor        int    // rooms.floor
	Description  string // rooms.description
	BuildingName string // buildings.name
	BuildingCode string // buildings.code
}

// Label renders the room as "<building code or name> – <number>".
func (r Room) Label() string {
	prefix := r.BuildingCode
	if prefix == "" {
		prefix = r.BuildingName
	}
	return fmt.Sprintf("%s – %s", prefix, r.Number)
}
