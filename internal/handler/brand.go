package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/salesync/field-api/internal/audit"
	"github.com/salesync/field-api/internal/model"
	"github.com/salesync/field-api/internal/repository"
	"github.com/salesync/field-api/internal/storage"
)

// BrandHandler serves the brand catalogue and its infographics.
type BrandHandler struct {
	Brands   *repository.BrandRepo
	Files    storage.Store
	Recorder *audit.Recorder
	Log      *logrus.Logger
}

func NewBrandHandler(b *repository.BrandRepo, files storage.Store, rec *audit.Recorder, log *logrus.Logger) *BrandHandler {
	return &BrandHandler{Brands: b, Files: files, Recorder: rec, Log: log}
}

type brandReq struct {
	Name   string  `json:"name"`
	Slug   *string `json:"slug"`
	Active *bool   `json:"active"`
}

// List handles GET /api/brands with name/active filters.
func (h *BrandHandler) List(c echo.Context) error {
	active, err := queryBool(c, "active")
	if err != nil {
		return badRequest(c, "invalid active")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	brands, err := h.Brands.List(ctx, tenantOf(c), repository.BrandFilter{
		Name:   c.QueryParam("name"),
		Active: active,
	})
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	items := make([]echo.Map, 0, len(brands))
	for _, b := range brands {
		items = append(items, brandJSON(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /api/brands (admin).
func (h *BrandHandler) Create(c echo.Context) error {
	var req brandReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return badRequest(c, "name is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b := &model.Brand{
		TenantID: tenantOf(c),
		Name:     req.Name,
		Slug:     req.Slug,
		Active:   true,
	}
	if req.Active != nil {
		b.Active = *req.Active
	}
	if err := h.Brands.Create(ctx, b); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "create_brand", "brand", b.ID, echo.Map{"name": b.Name})
	return c.JSON(http.StatusCreated, brandJSON(b))
}

// Get handles GET /api/brands/:id.
func (h *BrandHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Brands.GetByID(ctx, tenantOf(c), id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, brandJSON(b))
}

// Update handles PUT /api/brands/:id (admin).
func (h *BrandHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req struct {
		Name   *string `json:"name"`
		Slug   *string `json:"slug"`
		Active *bool   `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Brands.Update(ctx, tenantOf(c), id, repository.BrandUpdate{
		Name:   req.Name,
		Slug:   req.Slug,
		Active: req.Active,
	})
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "update_brand", "brand", b.ID, nil)
	return c.JSON(http.StatusOK, brandJSON(b))
}

// Delete handles DELETE /api/brands/:id (admin).  Quadrants and
// infographics go with the brand.
func (h *BrandHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Brands.Delete(ctx, tenantOf(c), id); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "delete_brand", "brand", id, nil)
	return c.JSON(http.StatusOK, echo.Map{"message": "brand deleted"})
}

// ListInfographics handles GET /api/brands/:id/infographics.
func (h *BrandHandler) ListInfographics(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Brands.ListInfographics(ctx, tenantOf(c), id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	out := make([]echo.Map, 0, len(items))
	for _, g := range items {
		out = append(out, infographicJSON(g))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// UploadInfographic handles POST /api/brands/:id/infographics (admin):
// multipart file plus optional caption.
func (h *BrandHandler) UploadInfographic(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	tenantID := tenantOf(c)
	if _, err := h.Brands.GetByID(ctx, tenantID, id); err != nil {
		return respondErr(c, h.Log, err)
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

	g := &model.BrandInfographic{TenantID: tenantID, BrandID: id, FileURL: url}
	if caption := strings.TrimSpace(c.FormValue("caption")); caption != "" {
		g.Caption = &caption
	}
	if err := h.Brands.CreateInfographic(ctx, g); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "upload_infographic", "brand", id, echo.Map{"file_url": url})
	return c.JSON(http.StatusCreated, infographicJSON(g))
}
