package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/salesync/field-api/internal/audit"
	"github.com/salesync/field-api/internal/model"
	"github.com/salesync/field-api/internal/repository"
)

// VisitHandler serves the visit lifecycle: open, list, complete with
// answers.
type VisitHandler struct {
	Visits   *repository.VisitRepo
	Photos   *repository.PhotoRepo
	Recorder *audit.Recorder
	Log      *logrus.Logger
}

func NewVisitHandler(v *repository.VisitRepo, p *repository.PhotoRepo, rec *audit.Recorder, log *logrus.Logger) *VisitHandler {
	return &VisitHandler{Visits: v, Photos: p, Recorder: rec, Log: log}
}

type createVisitReq struct {
	SurveyID  string          `json:"survey_id"`
	VisitType string          `json:"visit_type"`
	Geocode   json.RawMessage `json:"geocode"`
	ShopID    *string         `json:"shop_id"`
}

type answerReq struct {
	QuestionID *string         `json:"question_id"`
	AnswerText *string         `json:"answer_text"`
	AnswerJSON json.RawMessage `json:"answer_json"`
}

type completeVisitReq struct {
	Answers []answerReq `json:"answers"`
}

// List handles GET /api/visits with the full filter set.
func (h *VisitHandler) List(c echo.Context) error {
	userID, err := queryUUID(c, "user_id")
	if err != nil {
		return badRequest(c, "invalid user_id")
	}
	surveyID, err := queryUUID(c, "survey_id")
	if err != nil {
		return badRequest(c, "invalid survey_id")
	}
	shopID, err := queryUUID(c, "shop_id")
	if err != nil {
		return badRequest(c, "invalid shop_id")
	}
	completed, err := queryBool(c, "completed")
	if err != nil {
		return badRequest(c, "invalid completed")
	}
	start, err := queryDate(c, "start_date", false)
	if err != nil {
		return badRequest(c, "invalid start_date")
	}
	end, err := queryDate(c, "end_date", true)
	if err != nil {
		return badRequest(c, "invalid end_date")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	visits, err := h.Visits.List(ctx, tenantOf(c), repository.VisitFilter{
		UserID:    userID,
		SurveyID:  surveyID,
		VisitType: c.QueryParam("visit_type"),
		ShopID:    shopID,
		Start:     start,
		End:       end,
		Completed: completed,
	})
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	items := make([]echo.Map, 0, len(visits))
	for _, v := range visits {
		items = append(items, visitJSON(v))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /api/visits: opens a visit for the calling agent
// with started_at set server-side.
func (h *VisitHandler) Create(c echo.Context) error {
	var req createVisitReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	surveyID, err := uuid.Parse(req.SurveyID)
	if err != nil {
		return badRequest(c, "invalid survey_id")
	}
	if req.VisitType != "individual" && req.VisitType != "shop" {
		return badRequest(c, "visit_type must be individual or shop")
	}

	v := &model.Visit{
		TenantID:  tenantOf(c),
		SurveyID:  surveyID,
		UserID:    claimsOf(c).UserID,
		VisitType: req.VisitType,
		Geocode:   req.Geocode,
	}
	if req.ShopID != nil && *req.ShopID != "" {
		id, err := uuid.Parse(*req.ShopID)
		if err != nil {
			return badRequest(c, "invalid shop_id")
		}
		v.ShopID = &id
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Visits.Create(ctx, v); err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, visitJSON(v))
}

// Get handles GET /api/visits/:id.
func (h *VisitHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	v, err := h.Visits.GetByID(ctx, tenantOf(c), id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, visitJSON(v))
}

// Complete handles POST /api/visits/:id/complete.  Only the visit's own
// agent may complete it, exactly once, with answers attached atomically.
func (h *VisitHandler) Complete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req completeVisitReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	answers := make([]*model.VisitAnswer, 0, len(req.Answers))
	for _, a := range req.Answers {
		ans := &model.VisitAnswer{AnswerText: a.AnswerText, AnswerJSON: a.AnswerJSON}
		if a.QuestionID != nil && *a.QuestionID != "" {
			qid, err := uuid.Parse(*a.QuestionID)
			if err != nil {
				return badRequest(c, "invalid question_id")
			}
			ans.QuestionID = &qid
		}
		answers = append(answers, ans)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	tenantID := tenantOf(c)
	if err := h.Visits.Complete(ctx, tenantID, id, claimsOf(c).UserID, answers); err != nil {
		return respondErr(c, h.Log, err)
	}
	v, err := h.Visits.GetByID(ctx, tenantID, id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "complete_visit", "visit", id, echo.Map{"answers": len(answers)})
	return c.JSON(http.StatusOK, visitJSON(v))
}

// ListAnswers handles GET /api/visits/:id/answers.
func (h *VisitHandler) ListAnswers(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Visits.GetByID(ctx, tenantOf(c), id); err != nil {
		return respondErr(c, h.Log, err)
	}
	answers, err := h.Visits.ListAnswers(ctx, tenantOf(c), id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	items := make([]echo.Map, 0, len(answers))
	for _, a := range answers {
		items = append(items, answerJSON(a))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListPhotos handles GET /api/visits/:id/photos.
func (h *VisitHandler) ListPhotos(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Visits.GetByID(ctx, tenantOf(c), id); err != nil {
		return respondErr(c, h.Log, err)
	}
	photos, err := h.Photos.List(ctx, tenantOf(c), repository.PhotoFilter{VisitID: &id})
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	items := make([]echo.Map, 0, len(photos))
	for _, p := range photos {
		items = append(items, photoJSON(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
