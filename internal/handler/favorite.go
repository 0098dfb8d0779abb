package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-navigator/internal/repository"
)

type toggleReq struct {
	PoiID *uint64 `json:"poi_id" validate:"required,gt=0"`
}

type favoriteItem struct {
	ID    uint64  `json:"poi__id"`
	Title string  `json:"poi__title"`
	Type  string  `json:"poi__type"`
	Lat   float64 `json:"poi__lat"`
	Lng   float64 `json:"poi__lng"`
	Info  string  `json:"poi__info"`
}

// ToggleFavorite handles POST /api/favorite/toggle/.
func (h *CampusHandler) ToggleFavorite(c echo.Context) error {
	var req toggleReq
	if err := decodeJSON(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid data"})
	}
	if err := validateStruct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid data"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	favorited, err := h.Svc.ToggleFavorite(ctx, caller(c), *req.PoiID)
	if errors.Is(err, repository.ErrPoiNotFound) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid data"})
	}
	if err != nil {
		return h.fail(c, "toggle favorite", err)
	}
	msg := "Removed from favorites"
	if favorited {
		msg = "Added to favorites"
	}
	return c.JSON(http.StatusOK, echo.Map{"favorited": favorited, "message": msg})
}

// ListFavorites handles GET /api/favorites/ for the caller only.
func (h *CampusHandler) ListFavorites(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	pois, err := h.Svc.ListFavorites(ctx, caller(c))
	if err != nil {
		return h.fail(c, "list favorites", err)
	}
	out := make([]favoriteItem, 0, len(pois))
	for _, p := range pois {
		out = append(out, favoriteItem{ID: p.ID, Title: p.Title, Type: p.Type, Lat: p.Lat, Lng: p.Lng, Info: p.Info})
	}
	return c.JSON(http.StatusOK, out)
}
