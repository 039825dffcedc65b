package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/repository"
)

// BrandShare is one brand's mean shelf share over a window.
type BrandShare struct {
	BrandID       uuid.UUID `json:"brand_id"`
	BrandName     string    `json:"brand_name"`
	AverageShare  float64   `json:"average_share"`
	QuadrantCount int       `json:"quadrant_count"`
}

// ShelfShareReport lists every brand's share plus the mean of those
// per-brand averages.
type ShelfShareReport struct {
	Brands       []BrandShare `json:"brands"`
	AverageShare float64      `json:"average_share"`
	Start        time.Time    `json:"start"`
	End          time.Time    `json:"end"`
}

// ShelfShare averages the area percentage of each brand's shelf-photo
// quadrants in the window, optionally counting only quadrants captured
// by one agent.  Every brand of the tenant appears, inactive ones
// included: a brand without any quadrant reports 0.0 and still weighs
// into the overall average, so an untracked brand drags the aggregate
// down rather than vanishing from it.
func (a *Aggregator) ShelfShare(ctx context.Context, tenantID uuid.UUID, w Window, userID *uuid.UUID) (*ShelfShareReport, error) {
	brands, err := a.brands.List(ctx, tenantID, repository.BrandFilter{})
	if err != nil {
		return nil, err
	}
	quads, err := a.quadrants.ListShelfQuadrantsInWindow(ctx, tenantID, w.Start, w.End, userID)
	if err != nil {
		return nil, err
	}

	sums := make(map[uuid.UUID]float64)
	counts := make(map[uuid.UUID]int)
	for _, q := range quads {
		if q.AreaPercentage == nil {
			continue
		}
		sums[q.BrandID] += *q.AreaPercentage
		counts[q.BrandID]++
	}

	report := &ShelfShareReport{Start: w.Start, End: w.End}
	var total float64
	for _, b := range brands {
		share := BrandShare{BrandID: b.ID, BrandName: b.Name, QuadrantCount: counts[b.ID]}
		if share.QuadrantCount > 0 {
			share.AverageShare = sums[b.ID] / float64(share.QuadrantCount)
		}
		total += share.AverageShare
		report.Brands = append(report.Brands, share)
	}
	if len(report.Brands) > 0 {
		report.AverageShare = total / float64(len(report.Brands))
	}
	sort.Slice(report.Brands, func(i, j int) bool {
		if report.Brands[i].AverageShare != report.Brands[j].AverageShare {
			return report.Brands[i].AverageShare > report.Brands[j].AverageShare
		}
		return report.Brands[i].BrandName < report.Brands[j].BrandName
	})
	return report, nil
}
