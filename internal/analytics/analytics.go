// Package analytics computes tenant reports from the visit, photo and
// call-cycle data.  Every method is read-only: the aggregator pulls rows
// through narrow source interfaces and does all ratio math in memory, so
// the package carries no state and is safe for concurrent use.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/model"
	"github.com/salesync/field-api/internal/repository"
)

// ErrBadGroupBy is returned for a group_by value outside day|week|month.
var ErrBadGroupBy = errors.New("group_by must be one of day, week, month")

// VisitSource supplies visit rows and grouped counts.
type VisitSource interface {
	ListInWindow(ctx context.Context, tenantID uuid.UUID, start, end time.Time, userID *uuid.UUID) ([]*model.Visit, error)
	CountByUser(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]repository.UserVisitCount, error)
	CountBySurvey(ctx context.Context, tenantID uuid.UUID) ([]repository.SurveyVisitCount, error)
}

// BrandSource supplies the tenant's brand catalogue.
type BrandSource interface {
	List(ctx context.Context, tenantID uuid.UUID, f repository.BrandFilter) ([]*model.Brand, error)
}

// QuadrantSource supplies shelf quadrants of shelf photos in a window.
type QuadrantSource interface {
	ListShelfQuadrantsInWindow(ctx context.Context, tenantID uuid.UUID, start, end time.Time, userID *uuid.UUID) ([]*model.ShelfQuadrant, error)
}

// CycleSource supplies call cycles with their ordered stops.
type CycleSource interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.CallCycle, error)
	ListLocations(ctx context.Context, tenantID, cycleID uuid.UUID) ([]*model.CallCycleLocation, error)
	ListWithLocations(ctx context.Context, tenantID uuid.UUID) ([]repository.CycleWithLocations, error)
}

// UserSource supplies the tenant's user list for activity reports.
type UserSource interface {
	List(ctx context.Context, tenantID uuid.UUID, f repository.UserFilter) ([]*model.User, error)
}

// SurveySource supplies the tenant's survey list for completion reports.
type SurveySource interface {
	List(ctx context.Context, tenantID uuid.UUID, f repository.SurveyFilter) ([]*model.Survey, error)
}

// Aggregator computes all tenant analytics.  The zero Scheduler defaults
// to the frequency-interval walk.
type Aggregator struct {
	visits    VisitSource
	brands    BrandSource
	quadrants QuadrantSource
	cycles    CycleSource
	users     UserSource
	surveys   SurveySource
	scheduler Scheduler
}

// New wires an aggregator over its data sources.
func New(visits VisitSource, brands BrandSource, quadrants QuadrantSource, cycles CycleSource, users UserSource, surveys SurveySource) *Aggregator {
	return &Aggregator{
		visits:    visits,
		brands:    brands,
		quadrants: quadrants,
		cycles:    cycles,
		users:     users,
		surveys:   surveys,
		scheduler: IntervalScheduler{},
	}
}

// WithScheduler swaps the upcoming-schedule strategy.
func (a *Aggregator) WithScheduler(s Scheduler) *Aggregator {
	a.scheduler = s
	return a
}

// Window bounds a report to [Start, End] inclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// DefaultWindow covers the 30 days up to now.
func DefaultWindow(now time.Time) Window {
	return Window{Start: now.AddDate(0, 0, -30), End: now}
}

// Overview summarises visit volume and completion over a window.
type Overview struct {
	TotalVisits     int     `json:"total_visits"`
	CompletedVisits int     `json:"completed_visits"`
	CompletionRate  float64 `json:"completion_rate"`
}

// Overview counts the window's visits, optionally for one agent.  A
// window without visits reports a completion rate of 0.0, not NaN.
func (a *Aggregator) Overview(ctx context.Context, tenantID uuid.UUID, w Window, userID *uuid.UUID) (*Overview, error) {
	visits, err := a.visits.ListInWindow(ctx, tenantID, w.Start, w.End, userID)
	if err != nil {
		return nil, err
	}
	o := &Overview{TotalVisits: len(visits)}
	for _, v := range visits {
		if v.Completed() {
			o.CompletedVisits++
		}
	}
	o.CompletionRate = ratio(o.CompletedVisits, o.TotalVisits)
	return o, nil
}

// GroupBy selects the bucketing period of VisitsByPeriod.
type GroupBy string

const (
	GroupByDay   GroupBy = "day"
	GroupByWeek  GroupBy = "week"
	GroupByMonth GroupBy = "month"
)

// ParseGroupBy validates a group_by query value.  Empty defaults to day.
func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(s) {
	case "":
		return GroupByDay, nil
	case GroupByDay, GroupByWeek, GroupByMonth:
		return GroupBy(s), nil
	}
	return "", ErrBadGroupBy
}

// PeriodBucket counts visits that started in one period.
type PeriodBucket struct {
	Period    string `json:"period"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
}

// VisitsByPeriod buckets the window's visits by calendar period.  Week
// buckets follow ISO 8601 week numbering.  Only periods with at least one
// visit appear; buckets come back in chronological order.
func (a *Aggregator) VisitsByPeriod(ctx context.Context, tenantID uuid.UUID, w Window, g GroupBy, userID *uuid.UUID) ([]PeriodBucket, error) {
	visits, err := a.visits.ListInWindow(ctx, tenantID, w.Start, w.End, userID)
	if err != nil {
		return nil, err
	}
	byPeriod := make(map[string]*PeriodBucket)
	for _, v := range visits {
		at := v.CreatedAt
		if v.StartedAt != nil {
			at = *v.StartedAt
		}
		key, err := periodKey(at, g)
		if err != nil {
			return nil, err
		}
		b := byPeriod[key]
		if b == nil {
			b = &PeriodBucket{Period: key}
			byPeriod[key] = b
		}
		b.Total++
		if v.Completed() {
			b.Completed++
		}
	}
	out := make([]PeriodBucket, 0, len(byPeriod))
	for _, b := range byPeriod {
		out = append(out, *b)
	}
	// period keys are zero-padded, lexicographic order is chronological
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

func periodKey(t time.Time, g GroupBy) (string, error) {
	t = t.UTC()
	switch g {
	case GroupByDay:
		return t.Format("2006-01-02"), nil
	case GroupByWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week), nil
	case GroupByMonth:
		return t.Format("2006-01"), nil
	}
	return "", ErrBadGroupBy
}

// ratio returns hits/total as a percentage, 0.0 when total is zero.
func ratio(hits, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total) * 100
}
