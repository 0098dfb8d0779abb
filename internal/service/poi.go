package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/campus-navigator/internal/model"
	"github.com/iliyamo/campus-navigator/internal/queue"
	"github.com/iliyamo/campus-navigator/internal/repository"
)

// NewPoi is a validated create request.  A nil or zero BuildingID means
// the POI belongs to no building.
type NewPoi struct {
	Title      string
	Type       string
	Lat        float64
	Lng        float64
	BuildingID *uint64
	Info       string
}

// CreatePoi stores a POI on behalf of a superuser.  A non-zero building
// id that resolves to nothing is a *ValidationError.
func (s *Campus) CreatePoi(ctx context.Context, caller model.Caller, in NewPoi) (model.Poi, error) {
	if err := requireSuperuser(caller); err != nil {
		return model.Poi{}, err
	}

	p := model.Poi{Title: in.Title, Type: in.Type, Lat: in.Lat, Lng: in.Lng, Info: in.Info}
	if in.BuildingID != nil && *in.BuildingID != 0 {
		id := *in.BuildingID
		if _, err := s.Buildings.GetByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrBuildingNotFound) {
				return model.Poi{}, unknownBuilding(id)
			}
			return model.Poi{}, err
		}
		p.BuildingID = &id
	}

	if err := s.Pois.Create(ctx, &p); err != nil {
		// the building can vanish between the lookup and the insert
		if errors.Is(err, repository.ErrBuildingNotFound) && p.BuildingID != nil {
			return model.Poi{}, unknownBuilding(*p.BuildingID)
		}
		return model.Poi{}, err
	}

	ev := queue.NewEvent(queue.KindPoiCreated)
	ev.PoiID, ev.Title, ev.UserID = p.ID, p.Title, caller.UserID
	if p.BuildingID != nil {
		ev.BuildingID = *p.BuildingID
	}
	s.publish(ctx, ev)
	return p, nil
}

// DeletePoi removes a POI and, through the schema, its favorites.
func (s *Campus) DeletePoi(ctx context.Context, caller model.Caller, id uint64) error {
	if err := requireSuperuser(caller); err != nil {
		return err
	}
	return s.Pois.Delete(ctx, id)
}

func unknownBuilding(id uint64) error {
	return &ValidationError{Detail: fmt.Sprintf("building %d does not exist", id)}
}
