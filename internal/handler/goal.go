package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/salesync/field-api/internal/audit"
	"github.com/salesync/field-api/internal/model"
	"github.com/salesync/field-api/internal/repository"
)

// GoalHandler serves goals and their user/team assignments.
type GoalHandler struct {
	Goals    *repository.GoalRepo
	Recorder *audit.Recorder
	Log      *logrus.Logger
}

func NewGoalHandler(g *repository.GoalRepo, rec *audit.Recorder, log *logrus.Logger) *GoalHandler {
	return &GoalHandler{Goals: g, Recorder: rec, Log: log}
}

type goalReq struct {
	Name        string   `json:"name"`
	Metric      string   `json:"metric"`
	TargetValue *float64 `json:"target_value"`
	Period      string   `json:"period"`
	StartDate   *string  `json:"start_date"` // 2006-01-02
	EndDate     *string  `json:"end_date"`
}

var goalPeriods = map[string]bool{"daily": true, "weekly": true, "monthly": true, "quarterly": true}

// List handles GET /api/goals.
func (h *GoalHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	goals, err := h.Goals.List(ctx, tenantOf(c))
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	items := make([]echo.Map, 0, len(goals))
	for _, g := range goals {
		items = append(items, goalJSON(g))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /api/goals (manager+).
func (h *GoalHandler) Create(c echo.Context) error {
	var req goalReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return badRequest(c, "name is required")
	}
	if req.Metric == "" {
		return badRequest(c, "metric is required")
	}
	if !goalPeriods[req.Period] {
		return badRequest(c, "period must be one of daily, weekly, monthly, quarterly")
	}

	g := &model.Goal{
		TenantID:    tenantOf(c),
		Name:        req.Name,
		Metric:      req.Metric,
		TargetValue: req.TargetValue,
		Period:      req.Period,
	}
	var err error
	if g.StartDate, err = parseGoalDate(req.StartDate); err != nil {
		return badRequest(c, "invalid start_date")
	}
	if g.EndDate, err = parseGoalDate(req.EndDate); err != nil {
		return badRequest(c, "invalid end_date")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Goals.Create(ctx, g); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "create_goal", "goal", g.ID, echo.Map{"name": g.Name})
	return c.JSON(http.StatusCreated, goalJSON(g))
}

// Get handles GET /api/goals/:id.
func (h *GoalHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	g, err := h.Goals.GetByID(ctx, tenantOf(c), id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, goalJSON(g))
}

// Update handles PUT /api/goals/:id (manager+).
func (h *GoalHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req struct {
		Name        *string  `json:"name"`
		Metric      *string  `json:"metric"`
		TargetValue *float64 `json:"target_value"`
		Period      *string  `json:"period"`
		StartDate   *string  `json:"start_date"`
		EndDate     *string  `json:"end_date"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Period != nil && !goalPeriods[*req.Period] {
		return badRequest(c, "period must be one of daily, weekly, monthly, quarterly")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	g, err := h.Goals.Update(ctx, tenantOf(c), id, repository.GoalUpdate{
		Name:        req.Name,
		Metric:      req.Metric,
		TargetValue: req.TargetValue,
		Period:      req.Period,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "update_goal", "goal", g.ID, nil)
	return c.JSON(http.StatusOK, goalJSON(g))
}

// Delete handles DELETE /api/goals/:id (manager+).
func (h *GoalHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Goals.Delete(ctx, tenantOf(c), id); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "delete_goal", "goal", id, nil)
	return c.JSON(http.StatusOK, echo.Map{"message": "goal deleted"})
}

type assignReq struct {
	AssigneeType string `json:"assignee_type"`
	AssigneeID   string `json:"assignee_id"`
}

func (r assignReq) parse() (model.AssigneeType, uuid.UUID, error) {
	at, err := model.ParseAssigneeType(r.AssigneeType)
	if err != nil {
		return "", uuid.Nil, err
	}
	id, err := uuid.Parse(r.AssigneeID)
	if err != nil {
		return "", uuid.Nil, err
	}
	return at, id, nil
}

// Assign handles POST /api/goals/:id/assign (manager+).  Re-assigning
// the same pair answers 200 with the existing row.
func (h *GoalHandler) Assign(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req assignReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	at, assigneeID, err := req.parse()
	if err != nil {
		return badRequest(c, "assignee_type must be user or team with a valid assignee_id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Goals.Assign(ctx, tenantOf(c), id, at, assigneeID)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "assign_goal", "goal", id,
		echo.Map{"assignee_type": string(at), "assignee_id": assigneeID.String()})
	return c.JSON(http.StatusOK, assignmentJSON(a))
}

// Unassign handles POST /api/goals/:id/unassign (manager+).
func (h *GoalHandler) Unassign(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req assignReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	at, assigneeID, err := req.parse()
	if err != nil {
		return badRequest(c, "assignee_type must be user or team with a valid assignee_id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Goals.Unassign(ctx, tenantOf(c), id, at, assigneeID); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "unassign_goal", "goal", id,
		echo.Map{"assignee_type": string(at), "assignee_id": assigneeID.String()})
	return c.JSON(http.StatusOK, echo.Map{"message": "assignment removed"})
}

// ListAssignments handles GET /api/goals/:id/assignments.
func (h *GoalHandler) ListAssignments(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	assignments, err := h.Goals.ListAssignments(ctx, tenantOf(c), id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	items := make([]echo.Map, 0, len(assignments))
	for _, a := range assignments {
		items = append(items, assignmentJSON(a))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetProgress handles GET /api/assignments/:id/progress.
func (h *GoalHandler) GetProgress(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Goals.GetAssignmentByID(ctx, tenantOf(c), id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, assignmentJSON(a))
}

// UpdateProgress handles PUT /api/assignments/:id/progress.
func (h *GoalHandler) UpdateProgress(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req struct {
		Progress json.RawMessage `json:"progress"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Goals.UpdateProgress(ctx, tenantOf(c), id, req.Progress)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, assignmentJSON(a))
}

func parseGoalDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
