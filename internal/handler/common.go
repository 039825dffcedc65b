// Package handler contains the HTTP endpoints.  Handlers bind request
// DTOs, thread the request tenant into the repositories and map sentinel
// errors onto HTTP status codes.  Internal errors are logged and answered
// with a generic 500 so database details never leak to clients.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/salesync/field-api/internal/analytics"
	"github.com/salesync/field-api/internal/audit"
	"github.com/salesync/field-api/internal/middleware"
	"github.com/salesync/field-api/internal/repository"
	"github.com/salesync/field-api/internal/token"
)

// dbTimeout bounds every database round trip issued by a handler.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// pathID parses a UUID path parameter.
func pathID(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

// queryUUID parses an optional UUID query parameter; empty yields nil.
func queryUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// queryBool parses an optional boolean query parameter; empty yields nil.
func queryBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// queryDate parses an optional 2006-01-02 query parameter.  When endOfDay
// is set the timestamp moves to the last instant of that day so the bound
// stays inclusive.
func queryDate(c echo.Context, name string, endOfDay bool) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return &t, nil
}

// queryWindow resolves the start_date/end_date pair, defaulting to the
// last 30 days.
func queryWindow(c echo.Context) (analytics.Window, error) {
	w := analytics.DefaultWindow(time.Now().UTC())
	start, err := queryDate(c, "start_date", false)
	if err != nil {
		return w, err
	}
	end, err := queryDate(c, "end_date", true)
	if err != nil {
		return w, err
	}
	if start != nil {
		w.Start = *start
	}
	if end != nil {
		w.End = *end
	}
	return w, nil
}

// queryPage resolves limit/offset with the audit defaults.
func queryPage(c echo.Context) (limit, offset int) {
	limit, offset = 100, 0
	if raw := c.QueryParam("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 1000 {
		limit = 1000
	}
	if raw := c.QueryParam("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

// notFoundErrs maps every repository not-found sentinel to its client
// message.  Missing and tenant-mismatched rows answer identically.
var notFoundErrs = []error{
	repository.ErrTenantNotFound,
	repository.ErrUserNotFound,
	repository.ErrBrandNotFound,
	repository.ErrSurveyNotFound,
	repository.ErrQuestionNotFound,
	repository.ErrVisitNotFound,
	repository.ErrPhotoNotFound,
	repository.ErrTeamNotFound,
	repository.ErrGoalNotFound,
	repository.ErrAssignmentNotFound,
	repository.ErrCycleNotFound,
	repository.ErrLocationNotFound,
}

// respondErr maps repository sentinels to their status codes and hides
// anything unexpected behind a 500.
func respondErr(c echo.Context, log *logrus.Logger, err error) error {
	for _, sentinel := range notFoundErrs {
		if errors.Is(err, sentinel) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": sentinel.Error()})
		}
	}
	switch {
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already exists"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrVisitCompleted):
		return c.JSON(http.StatusConflict, echo.Map{"error": repository.ErrVisitCompleted.Error()})
	case errors.Is(err, analytics.ErrBadGroupBy):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": analytics.ErrBadGroupBy.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "request timed out"})
	}
	if log != nil {
		log.WithError(err).WithField("path", c.Path()).Error("unhandled error")
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// badRequest answers 400 with a field-level message.
func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// record appends an audit entry for a privileged mutation.  Failures are
// logged, never surfaced: the mutation already happened.
func record(c echo.Context, rec *audit.Recorder, log *logrus.Logger, action, objectType string, objectID uuid.UUID, meta any) {
	if rec == nil {
		return
	}
	e := audit.Entry{Action: action, ObjectType: objectType, Metadata: meta}
	if objectID != uuid.Nil {
		e.ObjectID = &objectID
	}
	if claims, ok := middleware.ClaimsFrom(c); ok {
		uid := claims.UserID
		e.UserID = &uid
	}
	if tenantID, ok := middleware.TenantFrom(c); ok && tenantID != uuid.Nil {
		tid := tenantID
		e.TenantID = &tid
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	if err := rec.Record(ctx, e); err != nil && log != nil {
		log.WithError(err).WithField("action", action).Error("audit record failed")
	}
}

// claimsOf returns the request claims; the JWT middleware guarantees they
// exist on protected routes.
func claimsOf(c echo.Context) *token.Claims {
	claims, _ := middleware.ClaimsFrom(c)
	return claims
}

// tenantOf returns the effective tenant id resolved by TenantScope.
func tenantOf(c echo.Context) uuid.UUID {
	tenantID, _ := middleware.TenantFrom(c)
	return tenantID
}
