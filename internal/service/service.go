// Package service holds the campus operations used by the HTTP layer:
// map centering, listing, search, POI creation, favorites and the admin
// maintenance of buildings, rooms and POIs.  Stores are interfaces so
// that the MySQL repositories and the in-memory test store are
// interchangeable.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/campus-navigator/internal/model"
	"github.com/iliyamo/campus-navigator/internal/queue"
)

// ErrForbidden is returned when the caller lacks the superuser flag.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthenticated is returned when an operation needs a user and the
// caller is anonymous.
var ErrUnauthenticated = errors.New("authentication required")

// ValidationError reports input that passed decoding but cannot be
// accepted, such as a reference to a building that does not exist.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return e.Detail }

type BuildingStore interface {
	Create(ctx context.Context, b *model.Building) error
	GetByID(ctx context.Context, id uint64) (*model.Building, error)
	First(ctx context.Context) (*model.Building, error)
	List(ctx context.Context, q string) ([]model.Building, error)
	SearchByName(ctx context.Context, q string) ([]model.Building, error)
	Delete(ctx context.Context, id uint64) error
}

type RoomStore interface {
	Create(ctx context.Context, r *model.Room) error
	GetByID(ctx context.Context, id uint64) (*model.Room, error)
	List(ctx context.Context, buildingID *uint64, q string) ([]model.Room, error)
	SearchByNumber(ctx context.Context, q string) ([]model.Room, error)
	Delete(ctx context.Context, id uint64) error
}

type PoiStore interface {
	Create(ctx context.Context, p *model.Poi) error
	GetByID(ctx context.Context, id uint64) (*model.Poi, error)
	ListAll(ctx context.Context) ([]model.Poi, error)
	SearchByTitle(ctx context.Context, q string) ([]model.Poi, error)
	Delete(ctx context.Context, id uint64) error
}

type FavoriteStore interface {
	Toggle(ctx context.Context, userID, poiID uint64) (bool, error)
	ListPoisByUser(ctx context.Context, userID uint64) ([]model.Poi, error)
}

// EventPublisher receives domain events after successful writes.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// NopPublisher drops every event.  Used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.Event) error { return nil }

// Campus implements the campus operations on top of the stores.
type Campus struct {
	Buildings BuildingStore
	Rooms     RoomStore
	Pois      PoiStore
	Favorites FavoriteStore
	Events    EventPublisher
	Log       *zap.Logger
}

// Stores groups the four stores for NewCampus.
type Stores struct {
	Buildings BuildingStore
	Rooms     RoomStore
	Pois      PoiStore
	Favorites FavoriteStore
}

// NewCampus wires the stores.  A nil publisher or logger is replaced by
// a no-op.
func NewCampus(st Stores, events EventPublisher, log *zap.Logger) *Campus {
	if events == nil {
		events = NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Campus{
		Buildings: st.Buildings,
		Rooms:     st.Rooms,
		Pois:      st.Pois,
		Favorites: st.Favorites,
		Events:    events,
		Log:       log,
	}
}

const publishTimeout = 3 * time.Second

// publish is best effort: the write it reports has already committed,
// so a broker failure is only logged.
func (s *Campus) publish(ctx context.Context, ev queue.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.Events.Publish(ctx, ev); err != nil {
		s.Log.Warn("publish event failed", zap.String("kind", ev.Kind), zap.Error(err))
	}
}

func requireSuperuser(caller model.Caller) error {
	if caller.UserID == 0 {
		return ErrUnauthenticated
	}
	if !caller.IsSuperuser {
		return ErrForbidden
	}
	return nil
}
