package service

import (
	"context"
	"errors"

	"github.com/iliyamo/campus-navigator/internal/model"
	"github.com/iliyamo/campus-navigator/internal/queue"
	"github.com/iliyamo/campus-navigator/internal/repository"
)

// ToggleFavorite flips the favorite state of poiID for the caller and
// returns the new state.  A toggle that lost a race against a
// concurrent toggle of the same pair is re-run once on top of the
// winner's result.  An unknown POI yields repository.ErrPoiNotFound.
func (s *Campus) ToggleFavorite(ctx context.Context, caller model.Caller, poiID uint64) (bool, error) {
	if caller.UserID == 0 {
		return false, ErrUnauthenticated
	}
	favorited, err := s.Favorites.Toggle(ctx, caller.UserID, poiID)
	if errors.Is(err, repository.ErrConflict) {
		favorited, err = s.Favorites.Toggle(ctx, caller.UserID, poiID)
	}
	if err != nil {
		return false, err
	}

	ev := queue.NewEvent(queue.KindFavoriteToggled)
	ev.UserID, ev.PoiID, ev.Favorited = caller.UserID, poiID, &favorited
	s.publish(ctx, ev)
	return favorited, nil
}

// ListFavorites returns the caller's favorite POIs in the order they
// were added.
func (s *Campus) ListFavorites(ctx context.Context, caller model.Caller) ([]model.Poi, error) {
	if caller.UserID == 0 {
		return nil, ErrUnauthenticated
	}
	return s.Favorites.ListPoisByUser(ctx, caller.UserID)
}
