package analytics

import (
	"time"

	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/model"
)

// ScheduledStop is one projected upcoming visit of a call cycle.
type ScheduledStop struct {
	LocationID uuid.UUID  `json:"location_id"`
	ShopID     *uuid.UUID `json:"shop_id,omitempty"`
	OrderNum   int        `json:"order_num"`
	DueAt      time.Time  `json:"due_at"`
}

// Scheduler projects the upcoming stops of a call cycle from a point in
// time.  Implementations must be deterministic for a fixed input.
type Scheduler interface {
	Upcoming(c *model.CallCycle, locs []*model.CallCycleLocation, from time.Time) []ScheduledStop
}

// IntervalScheduler walks the cycle's locations in route order, placing
// each stop one frequency interval after the previous one.  The first
// stop is due one interval from the starting point.
type IntervalScheduler struct{}

// Upcoming implements Scheduler.
func (IntervalScheduler) Upcoming(c *model.CallCycle, locs []*model.CallCycleLocation, from time.Time) []ScheduledStop {
	step := frequencyInterval(c.Frequency)
	out := make([]ScheduledStop, 0, len(locs))
	due := from
	for _, l := range locs {
		due = due.Add(step)
		out = append(out, ScheduledStop{
			LocationID: l.ID,
			ShopID:     l.ShopID,
			OrderNum:   l.OrderNum,
			DueAt:      due,
		})
	}
	return out
}

// frequencyInterval maps a cycle frequency to its visit spacing.  Unknown
// values fall back to weekly.
func frequencyInterval(freq string) time.Duration {
	switch freq {
	case "daily":
		return 24 * time.Hour
	case "monthly":
		return 30 * 24 * time.Hour
	default: // weekly
		return 7 * 24 * time.Hour
	}
}
