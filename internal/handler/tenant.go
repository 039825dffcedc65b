package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/salesync/field-api/internal/audit"
	"github.com/salesync/field-api/internal/model"
	"github.com/salesync/field-api/internal/repository"
)

// TenantHandler serves the super-admin tenant management endpoints.
type TenantHandler struct {
	Tenants  *repository.TenantRepo
	Recorder *audit.Recorder
	Log      *logrus.Logger
}

func NewTenantHandler(t *repository.TenantRepo, rec *audit.Recorder, log *logrus.Logger) *TenantHandler {
	return &TenantHandler{Tenants: t, Recorder: rec, Log: log}
}

type tenantReq struct {
	Name      string  `json:"name"`
	Subdomain *string `json:"subdomain"`
}

// List handles GET /api/tenants.
func (h *TenantHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	tenants, err := h.Tenants.List(ctx)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	items := make([]echo.Map, 0, len(tenants))
	for _, t := range tenants {
		items = append(items, tenantJSON(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /api/tenants.
func (h *TenantHandler) Create(c echo.Context) error {
	var req tenantReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return badRequest(c, "name is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	t := &model.Tenant{Name: req.Name, Subdomain: req.Subdomain}
	if err := h.Tenants.Create(ctx, t); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "create_tenant", "tenant", t.ID, echo.Map{"name": t.Name})
	return c.JSON(http.StatusCreated, tenantJSON(t))
}

// Get handles GET /api/tenants/:id.
func (h *TenantHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Tenants.GetByID(ctx, id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, tenantJSON(t))
}

// Update handles PUT /api/tenants/:id.
func (h *TenantHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req struct {
		Name      *string `json:"name"`
		Subdomain *string `json:"subdomain"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Tenants.Update(ctx, id, req.Name, req.Subdomain)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "update_tenant", "tenant", t.ID, nil)
	return c.JSON(http.StatusOK, tenantJSON(t))
}
