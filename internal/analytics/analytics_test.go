package analytics

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/model"
	"github.com/salesync/field-api/internal/repository"
)

// fakeSources feeds the aggregator fixed rows without a database.
type fakeSources struct {
	visits    []*model.Visit
	brands    []*model.Brand
	quadrants []*model.ShelfQuadrant
	cycles    []repository.CycleWithLocations
	users     []*model.User
	surveys   []*model.Survey
	byUser    []repository.UserVisitCount
	bySurvey  []repository.SurveyVisitCount

	quadrantUserID *uuid.UUID // last user filter seen by ListShelfQuadrantsInWindow
}

func (f *fakeSources) ListInWindow(_ context.Context, _ uuid.UUID, start, end time.Time, userID *uuid.UUID) ([]*model.Visit, error) {
	var out []*model.Visit
	for _, v := range f.visits {
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

func (f *fakeSources) CountByUser(context.Context, uuid.UUID, time.Time, time.Time) ([]repository.UserVisitCount, error) {
	return f.byUser, nil
}

func (f *fakeSources) CountBySurvey(context.Context, uuid.UUID) ([]repository.SurveyVisitCount, error) {
	return f.bySurvey, nil
}

func (f *fakeSources) List(_ context.Context, _ uuid.UUID, _ repository.BrandFilter) ([]*model.Brand, error) {
	return f.brands, nil
}

func (f *fakeSources) ListShelfQuadrantsInWindow(_ context.Context, _ uuid.UUID, _, _ time.Time, userID *uuid.UUID) ([]*model.ShelfQuadrant, error) {
	f.quadrantUserID = userID
	return f.quadrants, nil
}

func (f *fakeSources) GetByID(_ context.Context, _ uuid.UUID, id uuid.UUID) (*model.CallCycle, error) {
	for _, cl := range f.cycles {
		if cl.Cycle.ID == id {
			return cl.Cycle, nil
		}
	}
	return nil, repository.ErrCycleNotFound
}

func (f *fakeSources) ListLocations(_ context.Context, _ uuid.UUID, cycleID uuid.UUID) ([]*model.CallCycleLocation, error) {
	for _, cl := range f.cycles {
		if cl.Cycle.ID == cycleID {
			return cl.Locations, nil
		}
	}
	return nil, repository.ErrCycleNotFound
}

func (f *fakeSources) ListWithLocations(context.Context, uuid.UUID) ([]repository.CycleWithLocations, error) {
	return f.cycles, nil
}

// userSources and surveySources split the two List methods that would
// otherwise collide on one struct.
type userSources struct{ users []*model.User }

func (s userSources) List(context.Context, uuid.UUID, repository.UserFilter) ([]*model.User, error) {
	return s.users, nil
}

type surveySources struct{ surveys []*model.Survey }

func (s surveySources) List(context.Context, uuid.UUID, repository.SurveyFilter) ([]*model.Survey, error) {
	return s.surveys, nil
}

func newTestAggregator(f *fakeSources) *Aggregator {
	return New(f, f, f, f, userSources{f.users}, surveySources{f.surveys})
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func visitAt(userID uuid.UUID, started string, completed bool) *model.Visit {
	at := ts(started)
	v := &model.Visit{ID: uuid.New(), UserID: userID, StartedAt: &at, CreatedAt: at}
	if completed {
		done := at.Add(time.Hour)
		v.CompletedAt = &done
	}
	return v
}

func window(start, end string) Window {
	return Window{Start: ts(start), End: ts(end)}
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestOverviewEmptyWindow(t *testing.T) {
	agg := newTestAggregator(&fakeSources{})
	o, err := agg.Overview(context.Background(), uuid.New(), window("2026-01-01T00:00:00Z", "2026-01-31T00:00:00Z"), nil)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if o.TotalVisits != 0 || o.CompletedVisits != 0 {
		t.Fatalf("expected zero visits, got %+v", o)
	}
	if o.CompletionRate != 0.0 {
		t.Fatalf("empty window must report 0.0, got %v", o.CompletionRate)
	}
}

func TestOverviewHalfCompleted(t *testing.T) {
	u := uuid.New()
	f := &fakeSources{visits: []*model.Visit{
		visitAt(u, "2026-01-10T09:00:00Z", true),
		visitAt(u, "2026-01-12T09:00:00Z", false),
	}}
	agg := newTestAggregator(f)
	o, err := agg.Overview(context.Background(), uuid.New(), window("2026-01-01T00:00:00Z", "2026-01-31T00:00:00Z"), nil)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if o.TotalVisits != 2 || o.CompletedVisits != 1 {
		t.Fatalf("unexpected counts: %+v", o)
	}
	// completion_rate is a percentage, not a fraction: 1 of 2 is 50.0
	if !almostEqual(o.CompletionRate, 50.0) {
		t.Fatalf("expected 50.0, got %v", o.CompletionRate)
	}
}

func TestOverviewUserFilter(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	f := &fakeSources{visits: []*model.Visit{
		visitAt(alice, "2026-01-10T09:00:00Z", true),
		visitAt(bob, "2026-01-10T10:00:00Z", false),
	}}
	agg := newTestAggregator(f)
	o, err := agg.Overview(context.Background(), uuid.New(), window("2026-01-01T00:00:00Z", "2026-01-31T00:00:00Z"), &alice)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if o.TotalVisits != 1 || o.CompletedVisits != 1 {
		t.Fatalf("user filter leaked: %+v", o)
	}
}

func TestParseGroupBy(t *testing.T) {
	if g, err := ParseGroupBy(""); err != nil || g != GroupByDay {
		t.Fatalf("empty must default to day, got %q %v", g, err)
	}
	for _, ok := range []string{"day", "week", "month"} {
		if _, err := ParseGroupBy(ok); err != nil {
			t.Fatalf("%q rejected: %v", ok, err)
		}
	}
	if _, err := ParseGroupBy("fortnight"); err == nil {
		t.Fatal("unknown group_by must be rejected")
	}
}

func TestVisitsByPeriodDay(t *testing.T) {
	u := uuid.New()
	f := &fakeSources{visits: []*model.Visit{
		visitAt(u, "2026-01-10T09:00:00Z", true),
		visitAt(u, "2026-01-10T15:00:00Z", false),
		visitAt(u, "2026-01-12T09:00:00Z", true),
	}}
	agg := newTestAggregator(f)
	buckets, err := agg.VisitsByPeriod(context.Background(), uuid.New(), window("2026-01-01T00:00:00Z", "2026-01-31T00:00:00Z"), GroupByDay, nil)
	if err != nil {
		t.Fatalf("VisitsByPeriod: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Period != "2026-01-10" || buckets[0].Total != 2 || buckets[0].Completed != 1 {
		t.Fatalf("bad first bucket: %+v", buckets[0])
	}
	if buckets[1].Period != "2026-01-12" || buckets[1].Total != 1 {
		t.Fatalf("bad second bucket: %+v", buckets[1])
	}
}

func TestVisitsByPeriodISOWeek(t *testing.T) {
	u := uuid.New()
	// 2026-01-01 falls in ISO week 2026-W01; 2025-12-29 already does too
	f := &fakeSources{visits: []*model.Visit{
		visitAt(u, "2025-12-29T09:00:00Z", false),
		visitAt(u, "2026-01-01T09:00:00Z", false),
		visitAt(u, "2026-01-05T09:00:00Z", false),
	}}
	agg := newTestAggregator(f)
	buckets, err := agg.VisitsByPeriod(context.Background(), uuid.New(), window("2025-12-01T00:00:00Z", "2026-01-31T00:00:00Z"), GroupByWeek, nil)
	if err != nil {
		t.Fatalf("VisitsByPeriod: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %+v", buckets)
	}
	if buckets[0].Period != "2026-W01" || buckets[0].Total != 2 {
		t.Fatalf("year boundary must fold into 2026-W01: %+v", buckets[0])
	}
	if buckets[1].Period != "2026-W02" || buckets[1].Total != 1 {
		t.Fatalf("bad second bucket: %+v", buckets[1])
	}
}

func TestVisitsByPeriodMonth(t *testing.T) {
	u := uuid.New()
	f := &fakeSources{visits: []*model.Visit{
		visitAt(u, "2026-01-10T09:00:00Z", false),
		visitAt(u, "2026-02-10T09:00:00Z", false),
	}}
	agg := newTestAggregator(f)
	buckets, err := agg.VisitsByPeriod(context.Background(), uuid.New(), window("2026-01-01T00:00:00Z", "2026-03-01T00:00:00Z"), GroupByMonth, nil)
	if err != nil {
		t.Fatalf("VisitsByPeriod: %v", err)
	}
	if len(buckets) != 2 || buckets[0].Period != "2026-01" || buckets[1].Period != "2026-02" {
		t.Fatalf("bad month buckets: %+v", buckets)
	}
}

func TestShelfShareZeroQuadrantBrandCounts(t *testing.T) {
	tracked := &model.Brand{ID: uuid.New(), Name: "Acme"}
	ignored := &model.Brand{ID: uuid.New(), Name: "Blank"}
	pct := func(v float64) *float64 { return &v }
	f := &fakeSources{
		brands: []*model.Brand{tracked, ignored},
		quadrants: []*model.ShelfQuadrant{
			{ID: uuid.New(), BrandID: tracked.ID, AreaPercentage: pct(40)},
			{ID: uuid.New(), BrandID: tracked.ID, AreaPercentage: pct(60)},
		},
	}
	agg := newTestAggregator(f)
	report, err := agg.ShelfShare(context.Background(), uuid.New(), window("2026-01-01T00:00:00Z", "2026-01-31T00:00:00Z"), nil)
	if err != nil {
		t.Fatalf("ShelfShare: %v", err)
	}
	if len(report.Brands) != 2 {
		t.Fatalf("both brands must appear, got %d", len(report.Brands))
	}
	if !almostEqual(report.Brands[0].AverageShare, 50) {
		t.Fatalf("tracked brand mean should be 50, got %v", report.Brands[0].AverageShare)
	}
	if report.Brands[1].AverageShare != 0 || report.Brands[1].QuadrantCount != 0 {
		t.Fatalf("quadrant-less brand must report 0.0: %+v", report.Brands[1])
	}
	// aggregate is the mean over brands: (50 + 0) / 2
	if !almostEqual(report.AverageShare, 25) {
		t.Fatalf("expected 25, got %v", report.AverageShare)
	}
}

func TestShelfShareIncludesInactiveBrands(t *testing.T) {
	retired := &model.Brand{ID: uuid.New(), Name: "Retired", Active: false}
	pct := func(v float64) *float64 { return &v }
	f := &fakeSources{
		brands: []*model.Brand{retired},
		quadrants: []*model.ShelfQuadrant{
			{ID: uuid.New(), BrandID: retired.ID, AreaPercentage: pct(30)},
		},
	}
	agg := newTestAggregator(f)
	report, err := agg.ShelfShare(context.Background(), uuid.New(), window("2026-01-01T00:00:00Z", "2026-01-31T00:00:00Z"), nil)
	if err != nil {
		t.Fatalf("ShelfShare: %v", err)
	}
	if len(report.Brands) != 1 || !almostEqual(report.Brands[0].AverageShare, 30) {
		t.Fatalf("inactive brand must still be reported: %+v", report.Brands)
	}
}

func TestShelfShareUserFilter(t *testing.T) {
	f := &fakeSources{}
	agg := newTestAggregator(f)
	alice := uuid.New()
	if _, err := agg.ShelfShare(context.Background(), uuid.New(), window("2026-01-01T00:00:00Z", "2026-01-31T00:00:00Z"), &alice); err != nil {
		t.Fatalf("ShelfShare: %v", err)
	}
	if f.quadrantUserID == nil || *f.quadrantUserID != alice {
		t.Fatalf("user filter must reach the quadrant query, got %v", f.quadrantUserID)
	}
}

func cycleWith(name, freq string, shops ...uuid.UUID) repository.CycleWithLocations {
	c := &model.CallCycle{ID: uuid.New(), Name: name, Frequency: freq}
	var locs []*model.CallCycleLocation
	for i := range shops {
		shop := shops[i]
		locs = append(locs, &model.CallCycleLocation{
			ID: uuid.New(), CallCycleID: c.ID, ShopID: &shop, OrderNum: i + 1,
		})
	}
	return repository.CycleWithLocations{Cycle: c, Locations: locs}
}

func TestCallCycleCoverage(t *testing.T) {
	shopA, shopB, shopC := uuid.New(), uuid.New(), uuid.New()
	cl := cycleWith("north", "weekly", shopA, shopB)
	empty := cycleWith("south", "weekly")

	u := uuid.New()
	hit := visitAt(u, "2026-01-10T09:00:00Z", true)
	hit.ShopID = &shopA
	missedShop := visitAt(u, "2026-01-11T09:00:00Z", true)
	missedShop.ShopID = &shopC
	notCompleted := visitAt(u, "2026-01-12T09:00:00Z", false)
	notCompleted.ShopID = &shopB

	f := &fakeSources{
		visits: []*model.Visit{hit, missedShop, notCompleted},
		cycles: []repository.CycleWithLocations{cl, empty},
	}
	agg := newTestAggregator(f)
	report, err := agg.CallCycleCoverage(context.Background(), uuid.New(), window("2026-01-01T00:00:00Z", "2026-01-31T00:00:00Z"), nil)
	if err != nil {
		t.Fatalf("CallCycleCoverage: %v", err)
	}
	if len(report.Cycles) != 2 {
		t.Fatalf("expected 2 cycles, got %d", len(report.Cycles))
	}
	north := report.Cycles[0]
	if north.VisitedLocations != 1 || north.TotalLocations != 2 || !almostEqual(north.CoveragePct, 50) {
		t.Fatalf("incomplete visits must not count: %+v", north)
	}
	if report.Cycles[1].CoveragePct != 0 {
		t.Fatalf("empty cycle must score 0.0: %+v", report.Cycles[1])
	}
	// aggregate counts locations, so the empty cycle adds nothing: 1 of 2
	if !almostEqual(report.CoveragePct, 50) {
		t.Fatalf("aggregate should be 50, got %v", report.CoveragePct)
	}
}

func TestCallCycleCoverageWeightsByLocationCount(t *testing.T) {
	shopA, shopB, shopC := uuid.New(), uuid.New(), uuid.New()
	big := cycleWith("big", "weekly", shopA, shopB)
	small := cycleWith("small", "weekly", shopC)

	u := uuid.New()
	v1 := visitAt(u, "2026-01-10T09:00:00Z", true)
	v1.ShopID = &shopA
	v2 := visitAt(u, "2026-01-11T09:00:00Z", true)
	v2.ShopID = &shopB

	f := &fakeSources{
		visits: []*model.Visit{v1, v2},
		cycles: []repository.CycleWithLocations{big, small},
	}
	agg := newTestAggregator(f)
	report, err := agg.CallCycleCoverage(context.Background(), uuid.New(), window("2026-01-01T00:00:00Z", "2026-01-31T00:00:00Z"), nil)
	if err != nil {
		t.Fatalf("CallCycleCoverage: %v", err)
	}
	// 2 of 3 locations visited overall, not the (100 + 0) / 2 mean
	if !almostEqual(report.CoveragePct, 200.0/3.0) {
		t.Fatalf("expected 66.66.., got %v", report.CoveragePct)
	}
}

func TestCallCycleCoverageUserFilter(t *testing.T) {
	shopA, shopB := uuid.New(), uuid.New()
	cl := cycleWith("north", "weekly", shopA, shopB)

	alice, bob := uuid.New(), uuid.New()
	va := visitAt(alice, "2026-01-10T09:00:00Z", true)
	va.ShopID = &shopA
	vb := visitAt(bob, "2026-01-11T09:00:00Z", true)
	vb.ShopID = &shopB

	f := &fakeSources{
		visits: []*model.Visit{va, vb},
		cycles: []repository.CycleWithLocations{cl},
	}
	agg := newTestAggregator(f)
	report, err := agg.CallCycleCoverage(context.Background(), uuid.New(), window("2026-01-01T00:00:00Z", "2026-01-31T00:00:00Z"), &alice)
	if err != nil {
		t.Fatalf("CallCycleCoverage: %v", err)
	}
	if report.Cycles[0].VisitedLocations != 1 || !almostEqual(report.CoveragePct, 50) {
		t.Fatalf("only alice's visit should count: %+v", report.Cycles[0])
	}
}

func TestCycleStatusUpcomingSchedule(t *testing.T) {
	shopA, shopB := uuid.New(), uuid.New()
	cl := cycleWith("north", "daily", shopA, shopB)
	f := &fakeSources{cycles: []repository.CycleWithLocations{cl}}
	agg := newTestAggregator(f)

	now := ts("2026-01-10T08:00:00Z")
	w := window("2026-01-01T00:00:00Z", "2026-01-10T00:00:00Z")
	status, err := agg.CycleStatus(context.Background(), uuid.New(), cl.Cycle.ID, w, now)
	if err != nil {
		t.Fatalf("CycleStatus: %v", err)
	}
	if len(status.Upcoming) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(status.Upcoming))
	}
	if !status.Upcoming[0].DueAt.Equal(now.Add(24 * time.Hour)) {
		t.Fatalf("first stop must be one interval out, got %v", status.Upcoming[0].DueAt)
	}
	if !status.Upcoming[1].DueAt.Equal(now.Add(48 * time.Hour)) {
		t.Fatalf("stops must be one interval apart, got %v", status.Upcoming[1].DueAt)
	}

	again, err := agg.CycleStatus(context.Background(), uuid.New(), cl.Cycle.ID, w, now)
	if err != nil {
		t.Fatalf("CycleStatus: %v", err)
	}
	for i := range status.Upcoming {
		if !status.Upcoming[i].DueAt.Equal(again.Upcoming[i].DueAt) {
			t.Fatal("schedule projection must be deterministic")
		}
	}
}

func TestCycleStatusUnknownCycle(t *testing.T) {
	agg := newTestAggregator(&fakeSources{})
	_, err := agg.CycleStatus(context.Background(), uuid.New(), uuid.New(),
		window("2026-01-01T00:00:00Z", "2026-01-31T00:00:00Z"), ts("2026-01-10T08:00:00Z"))
	if err != repository.ErrCycleNotFound {
		t.Fatalf("expected ErrCycleNotFound, got %v", err)
	}
}

func TestUserActivityReport(t *testing.T) {
	loggedIn := ts("2026-01-09T08:00:00Z")
	name := "Ada"
	active := &model.User{ID: uuid.New(), Email: "ada@acme.test", FirstName: &name, IsActive: true, LastLoginAt: &loggedIn}
	dormant := &model.User{ID: uuid.New(), Email: "idle@acme.test", IsActive: false}
	f := &fakeSources{
		users: []*model.User{active, dormant},
		byUser: []repository.UserVisitCount{
			{UserID: active.ID, Total: 4, Completed: 3},
		},
	}
	agg := newTestAggregator(f)
	report, err := agg.UserActivityReport(context.Background(), uuid.New(), window("2026-01-01T00:00:00Z", "2026-01-31T00:00:00Z"))
	if err != nil {
		t.Fatalf("UserActivityReport: %v", err)
	}
	if report.ActiveUsers != 1 {
		t.Fatalf("expected 1 active user, got %d", report.ActiveUsers)
	}
	if len(report.Users) != 2 {
		t.Fatalf("all users must appear, got %d", len(report.Users))
	}
	top := report.Users[0]
	if top.UserID != active.ID || !almostEqual(top.CompletionRate, 75.0) || top.Name != "Ada" {
		t.Fatalf("bad top row: %+v", top)
	}
	if report.Users[1].TotalVisits != 0 || report.Users[1].CompletionRate != 0.0 {
		t.Fatalf("visit-less user must report zeros: %+v", report.Users[1])
	}
}

func TestSurveyCompletionReport(t *testing.T) {
	done := &model.Survey{ID: uuid.New(), Name: "Audit"}
	idle := &model.Survey{ID: uuid.New(), Name: "Survey B"}
	f := &fakeSources{
		surveys: []*model.Survey{done, idle},
		bySurvey: []repository.SurveyVisitCount{
			{SurveyID: done.ID, Total: 2, Completed: 1},
		},
	}
	agg := newTestAggregator(f)
	report, err := agg.SurveyCompletionReport(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("SurveyCompletionReport: %v", err)
	}
	if len(report.Surveys) != 2 {
		t.Fatalf("all surveys must appear, got %d", len(report.Surveys))
	}
	if !almostEqual(report.Surveys[0].CompletionRate, 50.0) {
		t.Fatalf("expected 50.0, got %v", report.Surveys[0].CompletionRate)
	}
	// (50 + 0) / 2
	if !almostEqual(report.AverageCompletionRate, 25.0) {
		t.Fatalf("expected 25.0, got %v", report.AverageCompletionRate)
	}
}
