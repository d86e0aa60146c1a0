package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/pfrederiksen/ultra-entrants/internal/history"
)

// FinishRate summarizes outcomes for one archive entry
type FinishRate struct {
	Year      int     `json:"year"`
	Distance  string  `json:"distance"`
	Finishers int     `json:"finishers"`
	DNF       int     `json:"dnf"`
	DNS       int     `json:"dns"`
	DQ        int     `json:"disqualified"`
	Starters  int     `json:"starters"`
	Rate      float64 `json:"finish_rate"` // finishers / starters, 0..1
}

// YearSummary adds entrant totals and finish times to a finish rate
type YearSummary struct {
	FinishRate
	Entrants          int      `json:"entrants"`
	AvgFinishHours    *float64 `json:"avg_finish_time_hours"`
	MedianFinishHours *float64 `json:"median_finish_time_hours"`
}

// Demographics describes one year's finishers
type Demographics struct {
	Year          int            `json:"year"`
	FinisherCount int            `json:"finisher_count"`
	AvgAge        *float64       `json:"avg_age"`
	MedianAge     *float64       `json:"median_age"`
	Divisions     map[string]int `json:"divisions"`
}

// AgeGroup is a half-open age range [Min, Max)
type AgeGroup struct {
	Name string
	Min  int
	Max  int
}

// DefaultAgeGroups are the buckets used for age analysis
var DefaultAgeGroups = []AgeGroup{
	{"<20", 0, 20},
	{"20-29", 20, 30},
	{"30-39", 30, 40},
	{"40-49", 40, 50},
	{"50-59", 50, 60},
	{"60-69", 60, 70},
	{"70+", 70, 150},
}

// AgeGroupStats is one age group in one year
type AgeGroupStats struct {
	Year     int     `json:"year"`
	Group    string  `json:"group"`
	Total    int     `json:"total"`
	Finished int     `json:"finished"`
	Rate     float64 `json:"finish_rate"`
}

// LocationStats aggregates every archive row from one location
type LocationStats struct {
	Location string  `json:"location"`
	Total    int     `json:"total_participants"`
	Finished int     `json:"finishers"`
	DNF      int     `json:"dnf"`
	Rate     float64 `json:"finish_rate"`
}

// TimeStats are finish time statistics, in hours, for one year and distance
type TimeStats struct {
	Year        int     `json:"year"`
	Distance    string  `json:"distance"`
	Finishers   int     `json:"finishers"`
	MeanHours   float64 `json:"avg_time_hours"`
	MedianHours float64 `json:"median_time_hours"`
	MinHours    float64 `json:"min_time_hours"`
	MaxHours    float64 `json:"max_time_hours"`
	StdevHours  float64 `json:"stdev_hours"`
}

func countStatus(rows []*history.Result, status history.Status) int {
	return lo.CountBy(rows, func(r *history.Result) bool { return r.Status == status })
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// finishRate counts statuses from the rows themselves rather than the
// entry's stored totals, which may be stale.
func finishRate(e *history.Entry) FinishRate {
	fr := FinishRate{
		Year:      e.Year,
		Distance:  e.Distance,
		Finishers: countStatus(e.Finishers, history.StatusFinished),
		DNF:       countStatus(e.Finishers, history.StatusDNF),
		DNS:       countStatus(e.Finishers, history.StatusDNS),
		DQ:        countStatus(e.Finishers, history.StatusDisqualified),
	}
	fr.Starters = fr.Finishers + fr.DNF + fr.DQ
	fr.Rate = ratio(fr.Finishers, fr.Starters)
	return fr
}

func sortedEntries(a *history.Archive) []*history.Entry {
	if a == nil {
		return nil
	}
	entries := append([]*history.Entry(nil), a.Entries...)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Year != entries[j].Year {
			return entries[i].Year < entries[j].Year
		}
		return entries[i].Distance < entries[j].Distance
	})
	return entries
}

// FinishRates returns finishers / (finishers + DNF + DQ) for every entry,
// ordered by year then distance. DNS rows never count as starters.
func FinishRates(a *history.Archive) []FinishRate {
	return lo.Map(sortedEntries(a), func(e *history.Entry, _ int) FinishRate {
		return finishRate(e)
	})
}

// YearlySummary reports each entry's finish rate and finish times
func YearlySummary(a *history.Archive) []YearSummary {
	return lo.Map(sortedEntries(a), func(e *history.Entry, _ int) YearSummary {
		hours := finishHours(e.Finishers)
		s := YearSummary{
			FinishRate: finishRate(e),
			Entrants:   len(e.Finishers),
		}
		if len(hours) > 0 {
			avg := round(mean(hours), 2)
			med := round(median(hours), 2)
			s.AvgFinishHours = &avg
			s.MedianFinishHours = &med
		}
		return s
	})
}

// DemographicTrends reports age and division make-up of each year's finishers
func DemographicTrends(a *history.Archive) []Demographics {
	byYear := lo.GroupBy(a.Results(), func(r *history.Result) int { return r.Year })
	years := lo.Keys(byYear)
	sort.Ints(years)

	out := make([]Demographics, 0, len(years))
	for _, year := range years {
		finished := lo.Filter(byYear[year], func(r *history.Result, _ int) bool { return r.Finished() })

		d := Demographics{
			Year:          year,
			FinisherCount: len(finished),
			Divisions:     lo.CountValues(lo.Map(finished, func(r *history.Result, _ int) string { return r.Division })),
		}

		ages := make([]float64, 0, len(finished))
		for _, r := range finished {
			if r.Age != nil && *r.Age > 0 {
				ages = append(ages, float64(*r.Age))
			}
		}
		if len(ages) > 0 {
			avg := round(mean(ages), 1)
			med := median(ages)
			d.AvgAge = &avg
			d.MedianAge = &med
		}
		out = append(out, d)
	}
	return out
}

// AgeGroups reports per-year finish rates by age group. Rows without an age
// are left out; groups with no rows in a year are omitted.
func AgeGroups(a *history.Archive, groups []AgeGroup) []AgeGroupStats {
	byYear := lo.GroupBy(a.Results(), func(r *history.Result) int { return r.Year })
	years := lo.Keys(byYear)
	sort.Ints(years)

	out := make([]AgeGroupStats, 0)
	for _, year := range years {
		for _, g := range groups {
			rows := lo.Filter(byYear[year], func(r *history.Result, _ int) bool {
				return r.Age != nil && *r.Age > 0 && *r.Age >= g.Min && *r.Age < g.Max
			})
			if len(rows) == 0 {
				continue
			}
			finished := countStatus(rows, history.StatusFinished)
			out = append(out, AgeGroupStats{
				Year:     year,
				Group:    g.Name,
				Total:    len(rows),
				Finished: finished,
				Rate:     ratio(finished, len(rows)),
			})
		}
	}
	return out
}

func locationOf(r *history.Result) string {
	city := strings.TrimSpace(r.City)
	state := strings.TrimSpace(r.State)
	switch {
	case city == "":
		return state
	case state == "":
		return city
	default:
		return city + ", " + state
	}
}

// LocationAnalysis ranks locations by participation across the archive,
// most participants first. A non-positive limit returns every location.
func LocationAnalysis(a *history.Archive, limit int) []LocationStats {
	byLocation := lo.GroupBy(a.Results(), locationOf)

	out := make([]LocationStats, 0, len(byLocation))
	for loc, rows := range byLocation {
		if loc == "" {
			continue
		}
		finished := countStatus(rows, history.StatusFinished)
		out = append(out, LocationStats{
			Location: loc,
			Total:    len(rows),
			Finished: finished,
			DNF:      countStatus(rows, history.StatusDNF),
			Rate:     ratio(finished, len(rows)),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Location < out[j].Location
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// FinishTimeStats reports time statistics for every entry with timed finishers
func FinishTimeStats(a *history.Archive) []TimeStats {
	out := make([]TimeStats, 0)
	for _, e := range sortedEntries(a) {
		hours := finishHours(e.Finishers)
		if len(hours) == 0 {
			continue
		}
		out = append(out, TimeStats{
			Year:        e.Year,
			Distance:    e.Distance,
			Finishers:   len(hours),
			MeanHours:   round(mean(hours), 2),
			MedianHours: round(median(hours), 2),
			MinHours:    round(lo.Min(hours), 2),
			MaxHours:    round(lo.Max(hours), 2),
			StdevHours:  round(stdev(hours), 2),
		})
	}
	return out
}

func finishHours(rows []*history.Result) []float64 {
	hours := make([]float64, 0, len(rows))
	for _, r := range rows {
		if r.Finished() && r.FinishTimeSeconds != nil && *r.FinishTimeSeconds > 0 {
			hours = append(hours, float64(*r.FinishTimeSeconds)/3600)
		}
	}
	return hours
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return lo.Sum(values) / float64(len(values))
}

func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// stdev is the sample standard deviation; 0 for fewer than two values
func stdev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(n-1))
}
