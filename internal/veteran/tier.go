package veteran

import (
	"sort"
)

// PaceTier is a cohort-relative bucket of recent average finish time
type PaceTier string

const (
	TierElite        PaceTier = "Elite (Top 25%)"
	TierFast         PaceTier = "Fast (Top 50%)"
	TierSteady       PaceTier = "Steady (Top 75%)"
	TierConservative PaceTier = "Conservative (Back 25%)"
	TierNoData       PaceTier = "No Recent Data"
)

// Quartiles are the cohort's time boundaries, in seconds
type Quartiles struct {
	Q1, Q2, Q3 float64
}

// ComputeQuartiles picks t[n/4], t[n/2] and t[3n/4] from the sorted times.
// Returns false for an empty cohort.
func ComputeQuartiles(times []float64) (Quartiles, bool) {
	if len(times) == 0 {
		return Quartiles{}, false
	}
	sorted := append([]float64(nil), times...)
	sort.Float64s(sorted)
	n := len(sorted)
	return Quartiles{
		Q1: sorted[n/4],
		Q2: sorted[n/2],
		Q3: sorted[3*n/4],
	}, true
}

// Tier buckets one average time against the quartiles
func (q Quartiles) Tier(avg *float64) PaceTier {
	switch {
	case avg == nil:
		return TierNoData
	case *avg <= q.Q1:
		return TierElite
	case *avg <= q.Q2:
		return TierFast
	case *avg <= q.Q3:
		return TierSteady
	default:
		return TierConservative
	}
}

// AssignPaceTiers sets every record's pace tier from the cohort's quartiles.
// It reads only phase-one output and returns the quartiles it used.
func AssignPaceTiers(records []*Record) (Quartiles, bool) {
	times := make([]float64, 0, len(records))
	for _, r := range records {
		if r.Experience.AvgRecentTimeSeconds != nil {
			times = append(times, *r.Experience.AvgRecentTimeSeconds)
		}
	}

	q, ok := ComputeQuartiles(times)
	for _, r := range records {
		if !ok {
			r.Experience.PaceTier = TierNoData
			continue
		}
		r.Experience.PaceTier = q.Tier(r.Experience.AvgRecentTimeSeconds)
	}
	return q, ok
}
