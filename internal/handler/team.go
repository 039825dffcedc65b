package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/salesync/field-api/internal/audit"
	"github.com/salesync/field-api/internal/model"
	"github.com/salesync/field-api/internal/repository"
)

// TeamHandler serves team CRUD and membership.
type TeamHandler struct {
	Teams    *repository.TeamRepo
	Recorder *audit.Recorder
	Log      *logrus.Logger
}

func NewTeamHandler(t *repository.TeamRepo, rec *audit.Recorder, log *logrus.Logger) *TeamHandler {
	return &TeamHandler{Teams: t, Recorder: rec, Log: log}
}

type teamReq struct {
	Name      string  `json:"name"`
	ManagerID *string `json:"manager_id"`
}

// List handles GET /api/teams.
func (h *TeamHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	teams, err := h.Teams.List(ctx, tenantOf(c))
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	items := make([]echo.Map, 0, len(teams))
	for _, t := range teams {
		items = append(items, teamJSON(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /api/teams (manager+).
func (h *TeamHandler) Create(c echo.Context) error {
	var req teamReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return badRequest(c, "name is required")
	}

	t := &model.Team{TenantID: tenantOf(c), Name: req.Name}
	if req.ManagerID != nil && *req.ManagerID != "" {
		id, err := uuid.Parse(*req.ManagerID)
		if err != nil {
			return badRequest(c, "invalid manager_id")
		}
		t.ManagerID = &id
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Teams.Create(ctx, t); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "create_team", "team", t.ID, echo.Map{"name": t.Name})
	return c.JSON(http.StatusCreated, teamJSON(t))
}

// Get handles GET /api/teams/:id, members included.
func (h *TeamHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Teams.GetByID(ctx, tenantOf(c), id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	members, err := h.Teams.ListMembers(ctx, tenantOf(c), id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	body := teamJSON(t)
	ms := make([]echo.Map, 0, len(members))
	for _, m := range members {
		ms = append(ms, userJSON(m))
	}
	body["members"] = ms
	return c.JSON(http.StatusOK, body)
}

// Update handles PUT /api/teams/:id (manager+).
func (h *TeamHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req struct {
		Name      *string `json:"name"`
		ManagerID *string `json:"manager_id"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	upd := repository.TeamUpdate{Name: req.Name}
	if req.ManagerID != nil && *req.ManagerID != "" {
		mid, err := uuid.Parse(*req.ManagerID)
		if err != nil {
			return badRequest(c, "invalid manager_id")
		}
		upd.ManagerID = &mid
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Teams.Update(ctx, tenantOf(c), id, upd)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "update_team", "team", t.ID, nil)
	return c.JSON(http.StatusOK, teamJSON(t))
}

// Delete handles DELETE /api/teams/:id (manager+).
func (h *TeamHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Teams.Delete(ctx, tenantOf(c), id); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "delete_team", "team", id, nil)
	return c.JSON(http.StatusOK, echo.Map{"message": "team deleted"})
}

// AddMember handles POST /api/teams/:id/members (manager+).
func (h *TeamHandler) AddMember(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return badRequest(c, "invalid user_id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Teams.AddMember(ctx, tenantOf(c), id, userID); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "add_team_member", "team", id, echo.Map{"user_id": userID.String()})
	return c.JSON(http.StatusOK, echo.Map{"message": "member added"})
}

// RemoveMember handles DELETE /api/teams/:id/members/:user_id (manager+).
func (h *TeamHandler) RemoveMember(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	userID, err := pathID(c, "user_id")
	if err != nil {
		return badRequest(c, "invalid user_id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Teams.RemoveMember(ctx, tenantOf(c), id, userID); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "remove_team_member", "team", id, echo.Map{"user_id": userID.String()})
	return c.JSON(http.StatusOK, echo.Map{"message": "member removed"})
}
