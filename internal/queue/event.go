// Package queue defines the campus domain events exchanged over the
// message broker, the publisher used by the service layer and the
// background consumer that writes them to a log file.
package queue

import "time"

// Event kinds.
const (
	KindPoiCreated      = "poi.created"
	KindFavoriteToggled = "favorite.toggled"
	KindBuildingDeleted = "building.deleted"
)

// Event is published after a successful write.  Only the fields that
// make sense for the kind are set.
type Event struct {
	Kind       string `json:"kind"`
	UserID     uint64 `json:"user_id,omitempty"`
	PoiID      uint64 `json:"poi_id,omitempty"`
	BuildingID uint64 `json:"building_id,omitempty"`
	Title      string `json:"title,omitempty"`
	Favorited  *bool  `json:"favorited,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// NewEvent stamps an event of the given kind with the current UTC time.
func NewEvent(kind string) Event {
	return Event{Kind: kind, OccurredAt: time.Now().UTC().Format(time.RFC3339)}
}
