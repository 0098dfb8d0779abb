package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-navigator/internal/model"
	"github.com/iliyamo/campus-navigator/internal/service"
)

type createBuildingReq struct {
	Name    string   `json:"name" validate:"max=200"`
	Code    string   `json:"code" validate:"max=50"`
	Address string   `json:"address" validate:"max=300"`
	Lat     *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng     *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

type buildingItem struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Address     string  `json:"address"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DisplayName string  `json:"display_name"`
}

func toBuildingItem(b model.Building) buildingItem {
	return buildingItem{ID: b.ID, Name: b.Name, Code: b.Code, Address: b.Address, Lat: b.Lat, Lng: b.Lng, DisplayName: b.DisplayName()}
}

type createRoomReq struct {
	BuildingID  uint64 `json:"building_id" validate:"required"`
	Number      string `json:"number" validate:"required,max=50"`
	Floor       *int   `json:"floor"`
	Description string `json:"description"`
}

type roomItem struct {
	ID          uint64 `json:"id"`
	BuildingID  uint64 `json:"building_id"`
	Number      string `json:"number"`
	Floor       int    `json:"floor"`
	Description string `json:"description"`
	Label       string `json:"label"`
}

func toRoomItem(r model.Room) roomItem {
	return roomItem{ID: r.ID, BuildingID: r.BuildingID, Number: r.Number, Floor: r.Floor, Description: r.Description, Label: r.Label()}
}

func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func badID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
}

// CreateBuilding handles POST /api/admin/buildings.
func (h *CampusHandler) CreateBuilding(c echo.Context) error {
	var req createBuildingReq
	if err := decodeJSON(c, &req); err != nil {
		return invalidData(c, err)
	}
	req.Name, req.Code, req.Address = strings.TrimSpace(req.Name), strings.TrimSpace(req.Code), strings.TrimSpace(req.Address)
	if err := validateStruct(req); err != nil {
		return invalidData(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Svc.CreateBuilding(ctx, caller(c), service.NewBuilding{
		Name: req.Name, Code: req.Code, Address: req.Address, Lat: *req.Lat, Lng: *req.Lng,
	})
	if err != nil {
		return h.fail(c, "create building", err)
	}
	return c.JSON(http.StatusCreated, toBuildingItem(b))
}

// ListBuildings handles GET /api/admin/buildings?q=.
func (h *CampusHandler) ListBuildings(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Svc.ListBuildings(ctx, caller(c), c.QueryParam("q"))
	if err != nil {
		return h.fail(c, "list buildings", err)
	}
	out := make([]buildingItem, 0, len(list))
	for _, b := range list {
		out = append(out, toBuildingItem(b))
	}
	return c.JSON(http.StatusOK, out)
}

// DeleteBuilding handles DELETE /api/admin/buildings/:id; rooms and POIs
// of the building go with it.
func (h *CampusHandler) DeleteBuilding(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Svc.DeleteBuilding(ctx, caller(c), id); err != nil {
		return h.fail(c, "delete building", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateRoom handles POST /api/admin/rooms.
func (h *CampusHandler) CreateRoom(c echo.Context) error {
	var req createRoomReq
	if err := decodeJSON(c, &req); err != nil {
		return invalidData(c, err)
	}
	req.Number = strings.TrimSpace(req.Number)
	if err := validateStruct(req); err != nil {
		return invalidData(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	r, err := h.Svc.CreateRoom(ctx, caller(c), service.NewRoom{
		BuildingID: req.BuildingID, Number: req.Number, Floor: req.Floor, Description: req.Description,
	})
	if err != nil {
		return h.fail(c, "create room", err)
	}
	return c.JSON(http.StatusCreated, toRoomItem(r))
}

// ListRooms handles GET /api/admin/rooms?building_id=&q=.
func (h *CampusHandler) ListRooms(c echo.Context) error {
	var buildingID *uint64
	if raw := c.QueryParam("building_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid building_id"})
		}
		buildingID = &id
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Svc.ListRooms(ctx, caller(c), buildingID, c.QueryParam("q"))
	if err != nil {
		return h.fail(c, "list rooms", err)
	}
	out := make([]roomItem, 0, len(list))
	for _, r := range list {
		out = append(out, toRoomItem(r))
	}
	return c.JSON(http.StatusOK, out)
}

// GetRoom handles GET /api/admin/rooms/:id.
func (h *CampusHandler) GetRoom(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	r, err := h.Svc.GetRoom(ctx, caller(c), id)
	if err != nil {
		return h.fail(c, "get room", err)
	}
	return c.JSON(http.StatusOK, toRoomItem(r))
}

// DeleteRoom handles DELETE /api/admin/rooms/:id.
func (h *CampusHandler) DeleteRoom(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Svc.DeleteRoom(ctx, caller(c), id); err != nil {
		return h.fail(c, "delete room", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeletePoi handles DELETE /api/admin/pois/:id.
func (h *CampusHandler) DeletePoi(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Svc.DeletePoi(ctx, caller(c), id); err != nil {
		return h.fail(c, "delete poi", err)
	}
	return c.NoContent(http.StatusNoContent)
}
