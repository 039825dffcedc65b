package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/salesync/field-api/internal/analytics"
	"github.com/salesync/field-api/internal/audit"
	"github.com/salesync/field-api/internal/model"
	"github.com/salesync/field-api/internal/repository"
)

// CycleHandler serves call cycles, their ordered locations and the
// adherence status endpoint.
type CycleHandler struct {
	Cycles   *repository.CallCycleRepo
	Reports  *analytics.Aggregator
	Recorder *audit.Recorder
	Log      *logrus.Logger
}

func NewCycleHandler(cc *repository.CallCycleRepo, reports *analytics.Aggregator, rec *audit.Recorder, log *logrus.Logger) *CycleHandler {
	return &CycleHandler{Cycles: cc, Reports: reports, Recorder: rec, Log: log}
}

var cycleFrequencies = map[string]bool{"daily": true, "weekly": true, "monthly": true}

type cycleReq struct {
	Name      string `json:"name"`
	Frequency string `json:"frequency"`
}

// List handles GET /api/call-cycles.
func (h *CycleHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	cycles, err := h.Cycles.List(ctx, tenantOf(c))
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	items := make([]echo.Map, 0, len(cycles))
	for _, cc := range cycles {
		items = append(items, cycleJSON(cc))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /api/call-cycles (manager+).
func (h *CycleHandler) Create(c echo.Context) error {
	var req cycleReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return badRequest(c, "name is required")
	}
	if !cycleFrequencies[req.Frequency] {
		return badRequest(c, "frequency must be one of daily, weekly, monthly")
	}

	creator := claimsOf(c).UserID
	cc := &model.CallCycle{
		TenantID:  tenantOf(c),
		Name:      req.Name,
		Frequency: req.Frequency,
		CreatedBy: &creator,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Cycles.Create(ctx, cc); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "create_call_cycle", "call_cycle", cc.ID, echo.Map{"name": cc.Name})
	return c.JSON(http.StatusCreated, cycleJSON(cc))
}

// Get handles GET /api/call-cycles/:id, locations included in route
// order.
func (h *CycleHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	cc, err := h.Cycles.GetByID(ctx, tenantOf(c), id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	locs, err := h.Cycles.ListLocations(ctx, tenantOf(c), id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	body := cycleJSON(cc)
	ls := make([]echo.Map, 0, len(locs))
	for _, l := range locs {
		ls = append(ls, locationJSON(l))
	}
	body["locations"] = ls
	return c.JSON(http.StatusOK, body)
}

// Update handles PUT /api/call-cycles/:id (manager+).
func (h *CycleHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req struct {
		Name      *string `json:"name"`
		Frequency *string `json:"frequency"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Frequency != nil && !cycleFrequencies[*req.Frequency] {
		return badRequest(c, "frequency must be one of daily, weekly, monthly")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	cc, err := h.Cycles.Update(ctx, tenantOf(c), id, repository.CycleUpdate{
		Name:      req.Name,
		Frequency: req.Frequency,
	})
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "update_call_cycle", "call_cycle", cc.ID, nil)
	return c.JSON(http.StatusOK, cycleJSON(cc))
}

// Delete handles DELETE /api/call-cycles/:id (manager+).
func (h *CycleHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Cycles.Delete(ctx, tenantOf(c), id); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "delete_call_cycle", "call_cycle", id, nil)
	return c.JSON(http.StatusOK, echo.Map{"message": "call cycle deleted"})
}

type locationReq struct {
	Location json.RawMessage `json:"location"`
	ShopID   *string         `json:"shop_id"`
	OrderNum int             `json:"order_num"`
}

// AddLocation handles POST /api/call-cycles/:id/locations (manager+).
func (h *CycleHandler) AddLocation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req locationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	loc := &model.CallCycleLocation{
		CallCycleID: id,
		Location:    req.Location,
		OrderNum:    req.OrderNum,
	}
	if req.ShopID != nil && *req.ShopID != "" {
		sid, err := uuid.Parse(*req.ShopID)
		if err != nil {
			return badRequest(c, "invalid shop_id")
		}
		loc.ShopID = &sid
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Cycles.AddLocation(ctx, tenantOf(c), loc); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "add_cycle_location", "call_cycle", id, nil)
	return c.JSON(http.StatusCreated, locationJSON(loc))
}

// RemoveLocation handles DELETE /api/call-cycles/:id/locations/:loc_id
// (manager+).
func (h *CycleHandler) RemoveLocation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	locID, err := pathID(c, "loc_id")
	if err != nil {
		return badRequest(c, "invalid loc_id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Cycles.RemoveLocation(ctx, tenantOf(c), id, locID); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "remove_cycle_location", "call_cycle", id, nil)
	return c.JSON(http.StatusOK, echo.Map{"message": "location removed"})
}

// ReorderLocations handles PUT /api/call-cycles/:id/locations/order
// (manager+): body carries the location ids in their new order.
func (h *CycleHandler) ReorderLocations(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req struct {
		LocationIDs []string `json:"location_ids"`
	}
	if err := c.Bind(&req); err != nil || len(req.LocationIDs) == 0 {
		return badRequest(c, "location_ids required")
	}
	ids := make([]uuid.UUID, 0, len(req.LocationIDs))
	for _, raw := range req.LocationIDs {
		lid, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "invalid location id")
		}
		ids = append(ids, lid)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Cycles.ReorderLocations(ctx, tenantOf(c), id, ids); err != nil {
		return respondErr(c, h.Log, err)
	}
	locs, err := h.Cycles.ListLocations(ctx, tenantOf(c), id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "reorder_cycle_locations", "call_cycle", id, nil)
	items := make([]echo.Map, 0, len(locs))
	for _, l := range locs {
		items = append(items, locationJSON(l))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Status handles GET /api/call-cycles/:id/status: adherence over the
// window plus the projected upcoming stops.
func (h *CycleHandler) Status(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	w, err := queryWindow(c)
	if err != nil {
		return badRequest(c, "invalid start_date/end_date")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	status, err := h.Reports.CycleStatus(ctx, tenantOf(c), id, w, time.Now().UTC())
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, status)
}
