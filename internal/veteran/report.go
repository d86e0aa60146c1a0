package veteran

import (
	"sort"
	"time"

	"github.com/pfrederiksen/ultra-entrants/internal/entrant"
	"github.com/pfrederiksen/ultra-entrants/internal/history"
)

// Report is the ranked veteran list for one roster
type Report struct {
	TotalVeterans int        `json:"total_veterans"`
	GeneratedAt   time.Time  `json:"generated_at"`
	RecentYears   []int      `json:"recent_years"`
	Quartiles     *Quartiles `json:"pace_quartiles,omitempty"`
	Veterans      []*Record  `json:"veterans"`
}

// Build runs the full pipeline: cross-reference, per-veteran scoring, cohort
// pace tiers, then ranking.
func Build(entrants map[string]*entrant.Entrant, results []*history.Result, opts Options, now time.Time) *Report {
	candidates := CrossReference(entrants, results, opts)

	records := make([]*Record, 0, len(candidates))
	for _, c := range candidates {
		records = append(records, Score(c, opts))
	}

	report := &Report{
		GeneratedAt: now,
		RecentYears: opts.RecentYears(),
	}
	if q, ok := AssignPaceTiers(records); ok {
		report.Quartiles = &q
	}

	Rank(records)
	report.Veterans = records
	report.TotalVeterans = len(records)
	return report
}

// Rank orders records by reliability index, then years participated, both
// descending. Join key breaks remaining ties so output is stable.
func Rank(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].Experience, records[j].Experience
		if a.ReliabilityIndex != b.ReliabilityIndex {
			return a.ReliabilityIndex > b.ReliabilityIndex
		}
		if a.YearsParticipated != b.YearsParticipated {
			return a.YearsParticipated > b.YearsParticipated
		}
		return records[i].JoinKey < records[j].JoinKey
	})
}
