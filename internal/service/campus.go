package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/iliyamo/campus-navigator/internal/model"
	"github.com/iliyamo/campus-navigator/internal/repository"
)

// Map center used when there is neither a selected POI nor a building.
const (
	DefaultCenterLat = 55.75
	DefaultCenterLng = 37.61
)

// MapView is the rendering context of the map page.
type MapView struct {
	CenterLat     float64
	CenterLng     float64
	SelectedPoiID *uint64
}

// MapCenter centers the map on the POI named by rawPoiID.  When the id is
// absent, unparsable or unknown the first building is used, and the
// fixed default when there are no buildings.
func (s *Campus) MapCenter(ctx context.Context, rawPoiID string) (MapView, error) {
	if id, err := strconv.ParseUint(strings.TrimSpace(rawPoiID), 10, 64); err == nil {
		p, err := s.Pois.GetByID(ctx, id)
		switch {
		case err == nil:
			return MapView{CenterLat: p.Lat, CenterLng: p.Lng, SelectedPoiID: &p.ID}, nil
		case !errors.Is(err, repository.ErrPoiNotFound):
			return MapView{}, err
		}
	}

	b, err := s.Buildings.First(ctx)
	if errors.Is(err, repository.ErrBuildingNotFound) {
		return MapView{CenterLat: DefaultCenterLat, CenterLng: DefaultCenterLng}, nil
	}
	if err != nil {
		return MapView{}, err
	}
	return MapView{CenterLat: b.Lat, CenterLng: b.Lng}, nil
}

// ListPois returns every POI in store order.
func (s *Campus) ListPois(ctx context.Context) ([]model.Poi, error) {
	return s.Pois.ListAll(ctx)
}

// SearchResult holds the three independent result sets of a search.
type SearchResult struct {
	Query     string
	Buildings []model.Building
	Rooms     []model.Room
	Pois      []model.Poi
}

// Search matches buildings by name, rooms by number and POIs by title.
// A blank query yields three empty sets without touching the stores.
func (s *Campus) Search(ctx context.Context, q string) (SearchResult, error) {
	res := SearchResult{
		Query:     strings.TrimSpace(q),
		Buildings: []model.Building{},
		Rooms:     []model.Room{},
		Pois:      []model.Poi{},
	}
	if res.Query == "" {
		return res, nil
	}

	var err error
	if res.Buildings, err = s.Buildings.SearchByName(ctx, res.Query); err != nil {
		return SearchResult{}, err
	}
	if res.Rooms, err = s.Rooms.SearchByNumber(ctx, res.Query); err != nil {
		return SearchResult{}, err
	}
	if res.Pois, err = s.Pois.SearchByTitle(ctx, res.Query); err != nil {
		return SearchResult{}, err
	}
	return res, nil
}
