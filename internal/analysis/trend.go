package analysis

import (
	"math"
	"time"

	"github.com/samber/lo"

	"github.com/pfrederiksen/ultra-entrants/internal/entrant"
)

// Projection estimates the days until an event fills.
// Unbounded means the field is not growing and never fills at the current rate.
type Projection struct {
	Days      float64 `json:"days"`
	Unbounded bool    `json:"unbounded"`
}

// Summary is the change log report for one event
type Summary struct {
	CurrentCount   int                     `json:"current_count"`
	TotalAdmits    int                     `json:"total_admits"`
	TotalDropouts  int                     `json:"total_dropouts"`
	RunsTracked    int                     `json:"runs_tracked"`
	HistoryRows    int                     `json:"history_rows"` // rows in the CSV history; should equal RunsTracked
	DailyAdmitRate float64                 `json:"daily_admit_rate"`
	Capacity       int                     `json:"capacity"`
	Projection     Projection              `json:"projection"`
	ProjectedDate  *time.Time              `json:"projected_date,omitempty"`
	Discrepancies  int                     `json:"discrepancies"`
	RecentDays     int                     `json:"recent_days"`
	Recent         []*entrant.ChangeRecord `json:"recent_changes"`
}

// TotalAdmits sums the new entrants across the log
func TotalAdmits(changes []*entrant.ChangeRecord) int {
	return lo.SumBy(changes, func(c *entrant.ChangeRecord) int { return c.TotalNew })
}

// TotalDropouts sums the dropped entrants across the log
func TotalDropouts(changes []*entrant.ChangeRecord) int {
	return lo.SumBy(changes, func(c *entrant.ChangeRecord) int { return c.TotalDropped })
}

// DailyAdmitRate is total admits divided by the whole days between the first
// and last records with a parseable timestamp. It is 0 with fewer than two
// such records or when they fall on the same day.
func DailyAdmitRate(changes []*entrant.ChangeRecord) float64 {
	dated := lo.Filter(changes, func(c *entrant.ChangeRecord, _ int) bool {
		return !entrant.ParseTimestamp(c.Timestamp).IsZero()
	})
	if len(dated) < 2 {
		return 0
	}

	first := entrant.ParseTimestamp(dated[0].Timestamp)
	last := entrant.ParseTimestamp(dated[len(dated)-1].Timestamp)
	days := int(last.Sub(first).Hours() / 24)
	if days <= 0 {
		return 0
	}

	return float64(TotalAdmits(changes)) / float64(days)
}

// CapacityProjection estimates days until capacity at the given admit rate.
// A non-positive rate is Unbounded. Days is negative when the field is
// already over capacity.
func CapacityProjection(capacity, current int, rate float64) Projection {
	if rate <= 0 {
		return Projection{Unbounded: true}
	}
	return Projection{Days: float64(capacity-current) / rate}
}

// ProjectedDate turns a projection into a calendar date. It returns false
// when the projection is unbounded or capacity is already reached.
func ProjectedDate(p Projection, now time.Time) (time.Time, bool) {
	if p.Unbounded || p.Days <= 0 {
		return time.Time{}, false
	}
	return now.Add(time.Duration(p.Days * float64(24*time.Hour))), true
}

// RecentChanges returns the records from the last days before now. Records
// with unparseable timestamps are left out.
func RecentChanges(changes []*entrant.ChangeRecord, now time.Time, days int) []*entrant.ChangeRecord {
	cutoff := now.AddDate(0, 0, -days)
	return lo.Filter(changes, func(c *entrant.ChangeRecord, _ int) bool {
		ts := entrant.ParseTimestamp(c.Timestamp)
		return !ts.IsZero() && !ts.Before(cutoff)
	})
}

// Summarize builds the change log report
func Summarize(changes []*entrant.ChangeRecord, capacity int, now time.Time, recentDays int) *Summary {
	s := &Summary{
		TotalAdmits:   TotalAdmits(changes),
		TotalDropouts: TotalDropouts(changes),
		RunsTracked:   len(changes),
		Capacity:      capacity,
		RecentDays:    recentDays,
		Recent:        RecentChanges(changes, now, recentDays),
		Discrepancies: lo.CountBy(changes, func(c *entrant.ChangeRecord) bool {
			return c.KeySetDiscrepancy != 0
		}),
	}

	if len(changes) > 0 {
		s.CurrentCount = changes[len(changes)-1].NewCount
	}

	s.DailyAdmitRate = DailyAdmitRate(changes)
	s.Projection = CapacityProjection(capacity, s.CurrentCount, s.DailyAdmitRate)
	if date, ok := ProjectedDate(s.Projection, now); ok {
		s.ProjectedDate = &date
	}

	return s
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
