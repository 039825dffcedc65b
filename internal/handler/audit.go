package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/salesync/field-api/internal/model"
	"github.com/salesync/field-api/internal/repository"
)

// auditSearcher is the slice of AuditRepo the handler needs.  A nil
// tenantID crosses tenants.
type auditSearcher interface {
	Search(ctx context.Context, tenantID *uuid.UUID, f repository.AuditFilter, limit, offset int) ([]*model.AuditLog, int, error)
}

// AuditHandler exposes the read side of the audit trail.  Entries are
// written by the Recorder; there is no endpoint that mutates them.
type AuditHandler struct {
	Audit auditSearcher
	Log   *logrus.Logger
}

func NewAuditHandler(audit *repository.AuditRepo, log *logrus.Logger) *AuditHandler {
	return &AuditHandler{Audit: audit, Log: log}
}

// Search handles GET /api/audit, scoped to the request tenant.
func (h *AuditHandler) Search(c echo.Context) error {
	tenantID := tenantOf(c)
	return h.search(c, &tenantID)
}

// SearchAll handles GET /api/audit/all, crossing tenants (super admin).
func (h *AuditHandler) SearchAll(c echo.Context) error {
	return h.search(c, nil)
}

func (h *AuditHandler) search(c echo.Context, tenantID *uuid.UUID) error {
	var f repository.AuditFilter
	var err error
	if f.UserID, err = queryUUID(c, "user_id"); err != nil {
		return badRequest(c, "invalid user_id")
	}
	if f.ObjectID, err = queryUUID(c, "object_id"); err != nil {
		return badRequest(c, "invalid object_id")
	}
	if f.Start, err = queryDate(c, "start_date", false); err != nil {
		return badRequest(c, "invalid start_date")
	}
	if f.End, err = queryDate(c, "end_date", true); err != nil {
		return badRequest(c, "invalid end_date")
	}
	f.Action = c.QueryParam("action")
	f.ObjectType = c.QueryParam("object_type")
	limit, offset := queryPage(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	logs, total, err := h.Audit.Search(ctx, tenantID, f, limit, offset)
	if err != nil {
		return respondErr(c, h.Log, err)
	}

	items := make([]echo.Map, 0, len(logs))
	for _, l := range logs {
		items = append(items, auditJSON(l))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"logs":     items,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"has_more": offset+limit < total,
	})
}
