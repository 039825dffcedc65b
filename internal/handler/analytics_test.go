package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/salesync/field-api/internal/analytics"
	"github.com/salesync/field-api/internal/middleware"
	"github.com/salesync/field-api/internal/model"
	"github.com/salesync/field-api/internal/repository"
)

// reportSources stubs every aggregator source with fixed visit rows.
type reportSources struct {
	visits []*model.Visit
}

func (s reportSources) ListInWindow(_ context.Context, _ uuid.UUID, start, end time.Time, userID *uuid.UUID) ([]*model.Visit, error) {
	var out []*model.Visit
	for _, v := range s.visits {
		if v.StartedAt == nil || v.StartedAt.Before(start) || v.StartedAt.After(end) {
			continue
		}
		if userID != nil && v.UserID != *userID {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (s reportSources) CountByUser(context.Context, uuid.UUID, time.Time, time.Time) ([]repository.UserVisitCount, error) {
	return nil, nil
}

func (s reportSources) CountBySurvey(context.Context, uuid.UUID) ([]repository.SurveyVisitCount, error) {
	return nil, nil
}

func (s reportSources) List(context.Context, uuid.UUID, repository.BrandFilter) ([]*model.Brand, error) {
	return nil, nil
}

func (s reportSources) ListShelfQuadrantsInWindow(context.Context, uuid.UUID, time.Time, time.Time, *uuid.UUID) ([]*model.ShelfQuadrant, error) {
	return nil, nil
}

func (s reportSources) GetByID(context.Context, uuid.UUID, uuid.UUID) (*model.CallCycle, error) {
	return nil, repository.ErrCycleNotFound
}

func (s reportSources) ListLocations(context.Context, uuid.UUID, uuid.UUID) ([]*model.CallCycleLocation, error) {
	return nil, nil
}

func (s reportSources) ListWithLocations(context.Context, uuid.UUID) ([]repository.CycleWithLocations, error) {
	return nil, nil
}

type stubUsers struct{}

func (stubUsers) List(context.Context, uuid.UUID, repository.UserFilter) ([]*model.User, error) {
	return nil, nil
}

type stubSurveys struct{}

func (stubSurveys) List(context.Context, uuid.UUID, repository.SurveyFilter) ([]*model.Survey, error) {
	return nil, nil
}

func startedVisit(started string, completed bool) *model.Visit {
	at, err := time.Parse(time.RFC3339, started)
	if err != nil {
		panic(err)
	}
	v := &model.Visit{ID: uuid.New(), UserID: uuid.New(), StartedAt: &at, CreatedAt: at}
	if completed {
		done := at.Add(time.Hour)
		v.CompletedAt = &done
	}
	return v
}

func reportHandler(visits ...*model.Visit) *AnalyticsHandler {
	src := reportSources{visits: visits}
	agg := analytics.New(src, src, src, src, stubUsers{}, stubSurveys{})
	return NewAnalyticsHandler(agg, quietLog())
}

func reportGet(t *testing.T, h echo.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.TenantKey, uuid.New())
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func TestVisitsReportsTotalAcrossBuckets(t *testing.T) {
	h := reportHandler(
		startedVisit("2026-01-10T09:00:00Z", true),
		startedVisit("2026-01-10T15:00:00Z", false),
		startedVisit("2026-01-12T09:00:00Z", true),
	)
	rec := reportGet(t, h.Visits,
		"/api/analytics/visits?group_by=day&start_date=2026-01-01&end_date=2026-01-31")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		GroupBy     string            `json:"group_by"`
		Buckets     []json.RawMessage `json:"buckets"`
		TotalVisits int               `json:"total_visits"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.GroupBy != "day" || len(body.Buckets) != 2 {
		t.Fatalf("bad bucket list: %s", rec.Body.String())
	}
	if body.TotalVisits != 3 {
		t.Fatalf("total_visits must sum the buckets, got %d", body.TotalVisits)
	}
}

func TestVisitsRejectsBadGroupBy(t *testing.T) {
	h := reportHandler()
	rec := reportGet(t, h.Visits, "/api/analytics/visits?group_by=fortnight")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestOverviewReportsPercentage(t *testing.T) {
	h := reportHandler(
		startedVisit("2026-01-10T09:00:00Z", true),
		startedVisit("2026-01-11T09:00:00Z", false),
	)
	rec := reportGet(t, h.Overview,
		"/api/analytics/overview?start_date=2026-01-01&end_date=2026-01-31")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		TotalVisits     int     `json:"total_visits"`
		CompletedVisits int     `json:"completed_visits"`
		CompletionRate  float64 `json:"completion_rate"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.TotalVisits != 2 || body.CompletedVisits != 1 {
		t.Fatalf("bad counts: %+v", body)
	}
	if body.CompletionRate != 50.0 {
		t.Fatalf("completion_rate must be 50.0 for one of two, got %v", body.CompletionRate)
	}
}

func TestShelfShareRejectsBadUserID(t *testing.T) {
	h := reportHandler()
	rec := reportGet(t, h.ShelfShare, "/api/analytics/shelf_share?user_id=not-a-uuid")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
