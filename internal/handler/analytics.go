package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/salesync/field-api/internal/analytics"
)

// AnalyticsHandler serves the tenant reports plus the admin activity and
// completion reports.
type AnalyticsHandler struct {
	Reports *analytics.Aggregator
	Log     *logrus.Logger
}

func NewAnalyticsHandler(reports *analytics.Aggregator, log *logrus.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{Reports: reports, Log: log}
}

// Overview handles GET /api/analytics/overview.
func (h *AnalyticsHandler) Overview(c echo.Context) error {
	w, err := queryWindow(c)
	if err != nil {
		return badRequest(c, "invalid start_date/end_date")
	}
	userID, err := queryUUID(c, "user_id")
	if err != nil {
		return badRequest(c, "invalid user_id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Reports.Overview(ctx, tenantOf(c), w, userID)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, o)
}

// Visits handles GET /api/analytics/visits with group_by=day|week|month.
func (h *AnalyticsHandler) Visits(c echo.Context) error {
	w, err := queryWindow(c)
	if err != nil {
		return badRequest(c, "invalid start_date/end_date")
	}
	userID, err := queryUUID(c, "user_id")
	if err != nil {
		return badRequest(c, "invalid user_id")
	}
	groupBy, err := analytics.ParseGroupBy(c.QueryParam("group_by"))
	if err != nil {
		return respondErr(c, h.Log, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	buckets, err := h.Reports.VisitsByPeriod(ctx, tenantOf(c), w, groupBy, userID)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	total := 0
	for _, b := range buckets {
		total += b.Total
	}
	return c.JSON(http.StatusOK, echo.Map{
		"group_by":     groupBy,
		"buckets":      buckets,
		"total_visits": total,
	})
}

// ShelfShare handles GET /api/analytics/shelf_share.
func (h *AnalyticsHandler) ShelfShare(c echo.Context) error {
	w, err := queryWindow(c)
	if err != nil {
		return badRequest(c, "invalid start_date/end_date")
	}
	userID, err := queryUUID(c, "user_id")
	if err != nil {
		return badRequest(c, "invalid user_id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	report, err := h.Reports.ShelfShare(ctx, tenantOf(c), w, userID)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, report)
}

// Coverage handles GET /api/analytics/call_cycle_coverage.
func (h *AnalyticsHandler) Coverage(c echo.Context) error {
	w, err := queryWindow(c)
	if err != nil {
		return badRequest(c, "invalid start_date/end_date")
	}
	userID, err := queryUUID(c, "user_id")
	if err != nil {
		return badRequest(c, "invalid user_id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	report, err := h.Reports.CallCycleCoverage(ctx, tenantOf(c), w, userID)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, report)
}

// UserActivity handles GET /api/admin/users/activity (admin).
func (h *AnalyticsHandler) UserActivity(c echo.Context) error {
	w, err := queryWindow(c)
	if err != nil {
		return badRequest(c, "invalid start_date/end_date")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	report, err := h.Reports.UserActivityReport(ctx, tenantOf(c), w)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, report)
}

// SurveyCompletion handles GET /api/admin/surveys/completion (admin).
func (h *AnalyticsHandler) SurveyCompletion(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	report, err := h.Reports.SurveyCompletionReport(ctx, tenantOf(c))
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, report)
}
