package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/campus-navigator/internal/model"
	"github.com/iliyamo/campus-navigator/internal/queue"
	"github.com/iliyamo/campus-navigator/internal/repository"
)

type NewBuilding struct {
	Name    string
	Code    string
	Address string
	Lat     float64
	Lng     float64
}

func (s *Campus) CreateBuilding(ctx context.Context, caller model.Caller, in NewBuilding) (model.Building, error) {
	if err := requireSuperuser(caller); err != nil {
		return model.Building{}, err
	}
	b := model.Building{Name: in.Name, Code: in.Code, Address: in.Address, Lat: in.Lat, Lng: in.Lng}
	if err := s.Buildings.Create(ctx, &b); err != nil {
		return model.Building{}, err
	}
	return b, nil
}

// ListBuildings filters on name, code and address when q is not blank.
func (s *Campus) ListBuildings(ctx context.Context, caller model.Caller, q string) ([]model.Building, error) {
	if err := requireSuperuser(caller); err != nil {
		return nil, err
	}
	return s.Buildings.List(ctx, strings.TrimSpace(q))
}

// DeleteBuilding removes a building together with its rooms and POIs.
func (s *Campus) DeleteBuilding(ctx context.Context, caller model.Caller, id uint64) error {
	if err := requireSuperuser(caller); err != nil {
		return err
	}
	if err := s.Buildings.Delete(ctx, id); err != nil {
		return err
	}
	ev := queue.NewEvent(queue.KindBuildingDeleted)
	ev.BuildingID, ev.UserID = id, caller.UserID
	s.publish(ctx, ev)
	return nil
}

// NewRoom is a validated room create request.  A nil Floor defaults to
// model.DefaultFloor.
type NewRoom struct {
	BuildingID  uint64
	Number      string
	Floor       *int
	Description string
}

func (s *Campus) CreateRoom(ctx context.Context, caller model.Caller, in NewRoom) (model.Room, error) {
	if err := requireSuperuser(caller); err != nil {
		return model.Room{}, err
	}
	b, err := s.Buildings.GetByID(ctx, in.BuildingID)
	if err != nil {
		if errors.Is(err, repository.ErrBuildingNotFound) {
			return model.Room{}, unknownBuilding(in.BuildingID)
		}
		return model.Room{}, err
	}
	r := model.Room{
		BuildingID:   b.ID,
		Number:       in.Number,
		Floor:        model.DefaultFloor,
		Description:  in.Description,
		BuildingName: b.Name,
		BuildingCode: b.Code,
	}
	if in.Floor != nil {
		r.Floor = *in.Floor
	}
	if err := s.Rooms.Create(ctx, &r); err != nil {
		if errors.Is(err, repository.ErrBuildingNotFound) {
			return model.Room{}, unknownBuilding(in.BuildingID)
		}
		return model.Room{}, err
	}
	return r, nil
}

func (s *Campus) GetRoom(ctx context.Context, caller model.Caller, id uint64) (model.Room, error) {
	if err := requireSuperuser(caller); err != nil {
		return model.Room{}, err
	}
	r, err := s.Rooms.GetByID(ctx, id)
	if err != nil {
		return model.Room{}, err
	}
	return *r, nil
}

// ListRooms optionally restricts to one building and filters on number
// and description.
func (s *Campus) ListRooms(ctx context.Context, caller model.Caller, buildingID *uint64, q string) ([]model.Room, error) {
	if err := requireSuperuser(caller); err != nil {
		return nil, err
	}
	return s.Rooms.List(ctx, buildingID, strings.TrimSpace(q))
}

func (s *Campus) DeleteRoom(ctx context.Context, caller model.Caller, id uint64) error {
	if err := requireSuperuser(caller); err != nil {
		return err
	}
	return s.Rooms.Delete(ctx, id)
}
