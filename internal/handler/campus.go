package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/campus-navigator/internal/middleware"
	"github.com/iliyamo/campus-navigator/internal/model"
	"github.com/iliyamo/campus-navigator/internal/repository"
	"github.com/iliyamo/campus-navigator/internal/service"
	"github.com/iliyamo/campus-navigator/internal/web"
)

// CampusHandler serves the map, the POI API, search, favorites and the
// admin endpoints on top of service.Campus.
type CampusHandler struct {
	Svc *service.Campus
	Log *zap.Logger
}

func NewCampusHandler(svc *service.Campus, log *zap.Logger) *CampusHandler {
	return &CampusHandler{Svc: svc, Log: log}
}

type poiItem struct {
	ID    uint64  `json:"id"`
	Title string  `json:"title"`
	Type  string  `json:"type"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Info  string  `json:"info"`
}

func toPoiItem(p model.Poi) poiItem {
	return poiItem{ID: p.ID, Title: p.Title, Type: p.Type, Lat: p.Lat, Lng: p.Lng, Info: p.Info}
}

// Map renders the map page centered by ?poi_id=.
func (h *CampusHandler) Map(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	view, err := h.Svc.MapCenter(ctx, c.QueryParam("poi_id"))
	if err != nil {
		return h.internal(c, "map center", err)
	}
	return c.Render(http.StatusOK, web.MapPage, view)
}

// ListPois returns every POI as {id, title, type, lat, lng, info}.
func (h *CampusHandler) ListPois(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	pois, err := h.Svc.ListPois(ctx)
	if err != nil {
		return h.internal(c, "list pois", err)
	}
	out := make([]poiItem, 0, len(pois))
	for _, p := range pois {
		out = append(out, toPoiItem(p))
	}
	return c.JSON(http.StatusOK, out)
}

// Search renders the results page for ?q=.
func (h *CampusHandler) Search(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Svc.Search(ctx, c.QueryParam("q"))
	if err != nil {
		return h.internal(c, "search", err)
	}
	return c.Render(http.StatusOK, web.SearchPage, res)
}

// caller returns the identity JWTAuth put in the context; routes
// without JWTAuth get the anonymous caller.
func caller(c echo.Context) model.Caller {
	cl, _ := middleware.CallerFrom(c)
	return cl
}

// internal logs err and answers 500 with a terse message.
func (h *CampusHandler) internal(c echo.Context, op string, err error) error {
	h.Log.Error("request failed", zap.String("op", op), zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// fail maps the shared service and repository errors onto statuses.
func (h *CampusHandler) fail(c echo.Context, op string, err error) error {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid data", "details": ve.Detail})
	case errors.Is(err, service.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrBuildingNotFound),
		errors.Is(err, repository.ErrRoomNotFound),
		errors.Is(err, repository.ErrPoiNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "concurrent update, retry"})
	}
	return h.internal(c, op, err)
}
