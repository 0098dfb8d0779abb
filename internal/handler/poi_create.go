package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-navigator/internal/service"
)

type createPoiReq struct {
	Title      string   `json:"title" validate:"required"`
	Type       string   `json:"type" validate:"required"`
	Lat        *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng        *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
	BuildingID *int64   `json:"building_id" validate:"omitempty,gte=0"`
	Info       string   `json:"info"`
}

func invalidData(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid data", "details": err.Error()})
}

// CreatePoi handles POST /api/poi/create/ for superusers.
func (h *CampusHandler) CreatePoi(c echo.Context) error {
	var req createPoiReq
	if err := decodeJSON(c, &req); err != nil {
		return invalidData(c, err)
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Type = strings.TrimSpace(req.Type)
	if err := validateStruct(req); err != nil {
		return invalidData(c, err)
	}

	in := service.NewPoi{Title: req.Title, Type: req.Type, Lat: *req.Lat, Lng: *req.Lng, Info: req.Info}
	if req.BuildingID != nil && *req.BuildingID > 0 {
		id := uint64(*req.BuildingID)
		in.BuildingID = &id
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Svc.CreatePoi(ctx, caller(c), in)
	if err != nil {
		return h.fail(c, "create poi", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": p.ID, "success": true})
}
