package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/model"
)

// CycleCoverage is the visit coverage of one call cycle over a window.
type CycleCoverage struct {
	CycleID          uuid.UUID `json:"cycle_id"`
	Name             string    `json:"name"`
	Frequency        string    `json:"frequency"`
	TotalLocations   int       `json:"total_locations"`
	VisitedLocations int       `json:"visited_locations"`
	CoveragePct      float64   `json:"coverage_pct"`
}

// CoverageReport lists every cycle's coverage plus the overall
// percentage across all cycles.
type CoverageReport struct {
	Cycles      []CycleCoverage `json:"cycles"`
	CoveragePct float64         `json:"coverage_pct"`
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
}

// CallCycleCoverage reports, per cycle, how many of its distinct shops
// were reached by a completed visit in the window, optionally counting
// only one agent's visits.  A cycle without locations scores 0.0.  The
// aggregate is visited locations over total locations summed across all
// cycles, not a mean of the per-cycle percentages, so a two-location
// cycle weighs twice as much as a one-location cycle.
func (a *Aggregator) CallCycleCoverage(ctx context.Context, tenantID uuid.UUID, w Window, userID *uuid.UUID) (*CoverageReport, error) {
	visited, err := a.visitedShops(ctx, tenantID, w, userID)
	if err != nil {
		return nil, err
	}
	cycles, err := a.cycles.ListWithLocations(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	report := &CoverageReport{Start: w.Start, End: w.End}
	var hit, total int
	for _, cl := range cycles {
		cov := coverageOf(cl.Cycle, cl.Locations, visited)
		hit += cov.VisitedLocations
		total += cov.TotalLocations
		report.Cycles = append(report.Cycles, cov)
	}
	report.CoveragePct = ratio(hit, total)
	return report, nil
}

// CycleStatus pairs one cycle's coverage with its projected upcoming
// stops.
type CycleStatus struct {
	CycleCoverage
	Upcoming []ScheduledStop `json:"upcoming"`
}

// CycleStatus reports one cycle's adherence over the window and projects
// the next stops through the configured scheduler.
func (a *Aggregator) CycleStatus(ctx context.Context, tenantID, cycleID uuid.UUID, w Window, now time.Time) (*CycleStatus, error) {
	cycle, err := a.cycles.GetByID(ctx, tenantID, cycleID)
	if err != nil {
		return nil, err
	}
	locs, err := a.cycles.ListLocations(ctx, tenantID, cycleID)
	if err != nil {
		return nil, err
	}
	visited, err := a.visitedShops(ctx, tenantID, w, nil)
	if err != nil {
		return nil, err
	}
	return &CycleStatus{
		CycleCoverage: coverageOf(cycle, locs, visited),
		Upcoming:      a.scheduler.Upcoming(cycle, locs, now),
	}, nil
}

// visitedShops collects the distinct shop ids of completed visits in the
// window, optionally restricted to one agent.
func (a *Aggregator) visitedShops(ctx context.Context, tenantID uuid.UUID, w Window, userID *uuid.UUID) (map[uuid.UUID]bool, error) {
	visits, err := a.visits.ListInWindow(ctx, tenantID, w.Start, w.End, userID)
	if err != nil {
		return nil, err
	}
	visited := make(map[uuid.UUID]bool)
	for _, v := range visits {
		if v.Completed() && v.ShopID != nil {
			visited[*v.ShopID] = true
		}
	}
	return visited, nil
}

func coverageOf(c *model.CallCycle, locs []*model.CallCycleLocation, visited map[uuid.UUID]bool) CycleCoverage {
	cov := CycleCoverage{CycleID: c.ID, Name: c.Name, Frequency: c.Frequency}
	shops := make(map[uuid.UUID]bool)
	for _, l := range locs {
		if l.ShopID != nil {
			shops[*l.ShopID] = true
		}
	}
	cov.TotalLocations = len(shops)
	for shop := range shops {
		if visited[shop] {
			cov.VisitedLocations++
		}
	}
	cov.CoveragePct = ratio(cov.VisitedLocations, cov.TotalLocations)
	return cov
}
