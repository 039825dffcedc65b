package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/salesync/field-api/internal/audit"
	"github.com/salesync/field-api/internal/model"
	"github.com/salesync/field-api/internal/repository"
)

// SurveyHandler serves surveys and their ordered question lists.
type SurveyHandler struct {
	Surveys  *repository.SurveyRepo
	Recorder *audit.Recorder
	Log      *logrus.Logger
}

func NewSurveyHandler(s *repository.SurveyRepo, rec *audit.Recorder, log *logrus.Logger) *SurveyHandler {
	return &SurveyHandler{Surveys: s, Recorder: rec, Log: log}
}

type surveyReq struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	BrandID *string `json:"brand_id"`
}

type questionReq struct {
	QuestionText string          `json:"question_text"`
	InputType    string          `json:"input_type"`
	Meta         json.RawMessage `json:"meta"`
	OrderNum     int             `json:"order_num"`
}

// List handles GET /api/surveys with name/type/active/brand_id filters.
func (h *SurveyHandler) List(c echo.Context) error {
	active, err := queryBool(c, "active")
	if err != nil {
		return badRequest(c, "invalid active")
	}
	brandID, err := queryUUID(c, "brand_id")
	if err != nil {
		return badRequest(c, "invalid brand_id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	surveys, err := h.Surveys.List(ctx, tenantOf(c), repository.SurveyFilter{
		Name:    c.QueryParam("name"),
		Type:    c.QueryParam("type"),
		Active:  active,
		BrandID: brandID,
	})
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	items := make([]echo.Map, 0, len(surveys))
	for _, s := range surveys {
		items = append(items, surveyJSON(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /api/surveys (admin).
func (h *SurveyHandler) Create(c echo.Context) error {
	var req surveyReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return badRequest(c, "name is required")
	}
	if req.Type == "" {
		req.Type = "standard"
	}

	s := &model.Survey{
		TenantID: tenantOf(c),
		Name:     req.Name,
		Type:     req.Type,
		Active:   true,
	}
	if req.BrandID != nil && *req.BrandID != "" {
		id, err := uuid.Parse(*req.BrandID)
		if err != nil {
			return badRequest(c, "invalid brand_id")
		}
		s.BrandID = &id
	}
	creator := claimsOf(c).UserID
	s.CreatedBy = &creator

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Surveys.Create(ctx, s); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "create_survey", "survey", s.ID, echo.Map{"name": s.Name})
	return c.JSON(http.StatusCreated, surveyJSON(s))
}

// Get handles GET /api/surveys/:id, questions included.
func (h *SurveyHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Surveys.GetByID(ctx, tenantOf(c), id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	questions, err := h.Surveys.ListQuestions(ctx, tenantOf(c), id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	body := surveyJSON(s)
	qs := make([]echo.Map, 0, len(questions))
	for _, q := range questions {
		qs = append(qs, questionJSON(q))
	}
	body["questions"] = qs
	return c.JSON(http.StatusOK, body)
}

// Update handles PUT /api/surveys/:id (admin).
func (h *SurveyHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req struct {
		Name   *string `json:"name"`
		Active *bool   `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Surveys.Update(ctx, tenantOf(c), id, repository.SurveyUpdate{
		Name:   req.Name,
		Active: req.Active,
	})
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "update_survey", "survey", s.ID, nil)
	return c.JSON(http.StatusOK, surveyJSON(s))
}

// Delete handles DELETE /api/surveys/:id (admin).  Surveys with recorded
// visits answer 409.
func (h *SurveyHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Surveys.Delete(ctx, tenantOf(c), id); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "delete_survey", "survey", id, nil)
	return c.JSON(http.StatusOK, echo.Map{"message": "survey deleted"})
}

// ListQuestions handles GET /api/surveys/:id/questions.
func (h *SurveyHandler) ListQuestions(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Surveys.GetByID(ctx, tenantOf(c), id); err != nil {
		return respondErr(c, h.Log, err)
	}
	questions, err := h.Surveys.ListQuestions(ctx, tenantOf(c), id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	items := make([]echo.Map, 0, len(questions))
	for _, q := range questions {
		items = append(items, questionJSON(q))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreateQuestion handles POST /api/surveys/:id/questions (admin).
func (h *SurveyHandler) CreateQuestion(c echo.Context) error {
	surveyID, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req questionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.QuestionText = strings.TrimSpace(req.QuestionText)
	if req.QuestionText == "" {
		return badRequest(c, "question_text is required")
	}
	if req.InputType == "" {
		req.InputType = "text"
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Surveys.GetByID(ctx, tenantOf(c), surveyID); err != nil {
		return respondErr(c, h.Log, err)
	}
	q := &model.SurveyQuestion{
		TenantID:     tenantOf(c),
		SurveyID:     surveyID,
		QuestionText: req.QuestionText,
		InputType:    req.InputType,
		Meta:         req.Meta,
		OrderNum:     req.OrderNum,
	}
	if err := h.Surveys.CreateQuestion(ctx, q); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "create_question", "survey", surveyID, nil)
	return c.JSON(http.StatusCreated, questionJSON(q))
}

// UpdateQuestion handles PUT /api/questions/:id (admin).
func (h *SurveyHandler) UpdateQuestion(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req struct {
		QuestionText *string         `json:"question_text"`
		InputType    *string         `json:"input_type"`
		Meta         json.RawMessage `json:"meta"`
		OrderNum     *int            `json:"order_num"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	q, err := h.Surveys.UpdateQuestion(ctx, tenantOf(c), id, repository.QuestionUpdate{
		QuestionText: req.QuestionText,
		InputType:    req.InputType,
		Meta:         req.Meta,
		OrderNum:     req.OrderNum,
	})
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "update_question", "question", q.ID, nil)
	return c.JSON(http.StatusOK, questionJSON(q))
}

// DeleteQuestion handles DELETE /api/questions/:id (admin).
func (h *SurveyHandler) DeleteQuestion(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Surveys.DeleteQuestion(ctx, tenantOf(c), id); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "delete_question", "question", id, nil)
	return c.JSON(http.StatusOK, echo.Map{"message": "question deleted"})
}
