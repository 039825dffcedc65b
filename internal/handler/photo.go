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
	"github.com/salesync/field-api/internal/storage"
)

// PhotoHandler serves photo upload and the shelf-quadrant sub-collection.
type PhotoHandler struct {
	Photos   *repository.PhotoRepo
	Visits   *repository.VisitRepo
	Files    storage.Store
	Recorder *audit.Recorder
	Log      *logrus.Logger
}

func NewPhotoHandler(p *repository.PhotoRepo, v *repository.VisitRepo, files storage.Store, rec *audit.Recorder, log *logrus.Logger) *PhotoHandler {
	return &PhotoHandler{Photos: p, Visits: v, Files: files, Recorder: rec, Log: log}
}

// List handles GET /api/photos with visit_id/purpose filters.
func (h *PhotoHandler) List(c echo.Context) error {
	visitID, err := queryUUID(c, "visit_id")
	if err != nil {
		return badRequest(c, "invalid visit_id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	photos, err := h.Photos.List(ctx, tenantOf(c), repository.PhotoFilter{
		VisitID: visitID,
		Purpose: c.QueryParam("purpose"),
	})
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	items := make([]echo.Map, 0, len(photos))
	for _, p := range photos {
		items = append(items, photoJSON(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Upload handles POST /api/photos: multipart file + visit_id, optional
// purpose and metadata JSON.  The file goes through the storage backend
// first; the row stores the returned URL.
func (h *PhotoHandler) Upload(c echo.Context) error {
	visitID, err := uuid.Parse(c.FormValue("visit_id"))
	if err != nil {
		return badRequest(c, "visit_id is required")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	tenantID := tenantOf(c)
	visit, err := h.Visits.GetByID(ctx, tenantID, visitID)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	// agents attach photos to their own visits only
	if visit.UserID != claimsOf(c).UserID && !claimsOf(c).AtLeast(model.RoleTeamLeader) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	src, err := fh.Open()
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	defer src.Close()

	url, err := h.Files.Save(ctx, tenantID, fh.Filename, src)
	if err != nil {
		return respondErr(c, h.Log, err)
	}

	p := &model.Photo{TenantID: tenantID, VisitID: visitID, FileURL: url}
	if purpose := c.FormValue("purpose"); purpose != "" {
		p.Purpose = &purpose
	}
	if meta := c.FormValue("metadata"); meta != "" {
		if !json.Valid([]byte(meta)) {
			return badRequest(c, "metadata must be valid JSON")
		}
		p.Metadata = json.RawMessage(meta)
	}
	if err := h.Photos.Create(ctx, p); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "upload_photo", "photo", p.ID, echo.Map{"visit_id": visitID.String()})
	return c.JSON(http.StatusCreated, photoJSON(p))
}

// Get handles GET /api/photos/:id.
func (h *PhotoHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Photos.GetByID(ctx, tenantOf(c), id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, photoJSON(p))
}

type quadrantReq struct {
	BrandID        string          `json:"brand_id"`
	QuadrantCoords json.RawMessage `json:"quadrant_coords"`
	AreaPercentage *float64        `json:"area_percentage"`
}

// ListQuadrants handles GET /api/photos/:id/quadrants.
func (h *PhotoHandler) ListQuadrants(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Photos.GetByID(ctx, tenantOf(c), id); err != nil {
		return respondErr(c, h.Log, err)
	}
	quads, err := h.Photos.ListQuadrants(ctx, tenantOf(c), id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	items := make([]echo.Map, 0, len(quads))
	for _, q := range quads {
		items = append(items, quadrantJSON(q))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreateQuadrant handles POST /api/photos/:id/quadrants.  Agents mark
// quadrants on photos of their own visits; team leads and above may mark
// any photo in the tenant.
func (h *PhotoHandler) CreateQuadrant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req quadrantReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	brandID, err := uuid.Parse(req.BrandID)
	if err != nil {
		return badRequest(c, "invalid brand_id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	tenantID := tenantOf(c)
	photo, err := h.Photos.GetByID(ctx, tenantID, id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	visit, err := h.Visits.GetByID(ctx, tenantID, photo.VisitID)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	if visit.UserID != claimsOf(c).UserID && !claimsOf(c).AtLeast(model.RoleTeamLeader) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	q := &model.ShelfQuadrant{
		TenantID:       tenantID,
		PhotoID:        id,
		BrandID:        brandID,
		QuadrantCoords: req.QuadrantCoords,
	}
	if req.AreaPercentage != nil {
		if *req.AreaPercentage < 0 || *req.AreaPercentage > 100 {
			return badRequest(c, "area_percentage must be between 0 and 100")
		}
		q.AreaPercentage = req.AreaPercentage
	}
	if err := h.Photos.CreateQuadrant(ctx, q); err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, quadrantJSON(q))
}
