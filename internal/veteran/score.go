package veteran

import (
	"fmt"
	"math"
	"strings"

	"github.com/pfrederiksen/ultra-entrants/internal/history"
)

// Reliability index weights
const (
	QualifyingWeight  = 15
	YearWeight        = 10
	SecondaryPenalty  = 5
	RecencyStepPoints = 2
)

// Name is a veteran's display name
type Name struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// Location is where a veteran is registered from
type Location struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// Experience holds a veteran's derived metrics
type Experience struct {
	YearsParticipated    int      `json:"years_participated"`
	QualifyingFinishes   int      `json:"qualifying_finishes"`
	SecondaryFinishes    int      `json:"secondary_finishes"`
	DNFs                 int      `json:"dnfs"`
	ReliabilityIndex     int      `json:"reliability_index"`
	RecencyBonus         int      `json:"recency_bonus"`
	ConsistencyRate      int      `json:"consistency_rate"`
	AvgRecentTimeSeconds *float64 `json:"avg_recent_time_seconds"`
	AvgRecentTime        string   `json:"avg_recent_time_formatted,omitempty"`
	AvgRecentPosition    *float64 `json:"avg_recent_position"`
	RecentFinishesCount  int      `json:"recent_finishes_count"`
	RecentSecondaryCount int      `json:"recent_secondary_count"`
	RecentSummary        string   `json:"recent_summary"`
	PaceTier             PaceTier `json:"pace_tier"`
}

// Record is a scored veteran
type Record struct {
	JoinKey                  string            `json:"-"`
	Name                     Name              `json:"name"`
	Location                 Location          `json:"location"`
	AgeCategory              string            `json:"age_category"`
	Experience               Experience        `json:"experience"`
	QualifyingFinishes       []*history.Result `json:"qualifying_finishes"`
	SecondaryFinishes        []*history.Result `json:"secondary_finishes"`
	DNFs                     []*history.Result `json:"dnfs"`
	RecentQualifyingFinishes []*history.Result `json:"recent_qualifying_finishes"`
}

// Score computes one veteran's metrics. The pace tier is left unset; it
// depends on the whole cohort and is filled in by AssignPaceTiers.
func Score(c *Candidate, opts Options) *Record {
	years := make(map[int]bool)
	for _, r := range c.Qualifying {
		years[r.Year] = true
	}
	for _, r := range c.Secondary {
		years[r.Year] = true
	}

	exp := Experience{
		YearsParticipated:  len(years),
		QualifyingFinishes: len(c.Qualifying),
		SecondaryFinishes:  len(c.Secondary),
		DNFs:               len(c.DNF),
	}

	if exp.YearsParticipated > 0 {
		exp.ConsistencyRate = int(math.Round(100 * float64(exp.QualifyingFinishes) / float64(exp.YearsParticipated)))
	}

	recent := make([]*history.Result, 0)
	for _, r := range c.Qualifying {
		if opts.inWindow(r.Year) {
			recent = append(recent, r)
			exp.RecencyBonus += RecencyStepPoints * (r.Year - opts.WindowStart + 1)
		}
	}
	for _, r := range c.Secondary {
		if opts.inWindow(r.Year) {
			exp.RecentSecondaryCount++
		}
	}
	exp.RecentFinishesCount = len(recent)

	exp.ReliabilityIndex = ReliabilityIndex(exp.QualifyingFinishes, exp.YearsParticipated, exp.SecondaryFinishes, exp.RecencyBonus)

	exp.AvgRecentTimeSeconds = averageTime(recent)
	if exp.AvgRecentTimeSeconds != nil {
		exp.AvgRecentTime = history.FormatSeconds(*exp.AvgRecentTimeSeconds)
	}
	exp.AvgRecentPosition = averagePlace(recent)
	exp.RecentSummary = recentSummary(c, opts)

	e := c.Entrant
	return &Record{
		JoinKey:                  c.JoinKey,
		Name:                     Name{First: e.FirstName, Last: e.LastName},
		Location:                 Location{City: e.City, State: e.Region},
		AgeCategory:              e.Age,
		Experience:               exp,
		QualifyingFinishes:       c.Qualifying,
		SecondaryFinishes:        nonNil(c.Secondary),
		DNFs:                     nonNil(c.DNF),
		RecentQualifyingFinishes: recent,
	}
}

// ReliabilityIndex combines the scoring inputs
func ReliabilityIndex(qualifying, years, secondary, recencyBonus int) int {
	return QualifyingWeight*qualifying + YearWeight*years - SecondaryPenalty*secondary + recencyBonus
}

func averageTime(results []*history.Result) *float64 {
	var sum float64
	n := 0
	for _, r := range results {
		if r.FinishTimeSeconds == nil {
			continue
		}
		sum += float64(*r.FinishTimeSeconds)
		n++
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

func averagePlace(results []*history.Result) *float64 {
	var sum float64
	n := 0
	for _, r := range results {
		if r.Place <= 0 {
			continue
		}
		sum += float64(r.Place)
		n++
	}
	if n == 0 {
		return nil
	}
	avg := math.Round(sum / float64(n))
	return &avg
}

// recentSummary describes each window year by the best outcome: a qualifying
// finish, a secondary finish, or a DNF.
func recentSummary(c *Candidate, opts Options) string {
	has := func(results []*history.Result, year int) bool {
		for _, r := range results {
			if r.Year == year {
				return true
			}
		}
		return false
	}

	parts := make([]string, 0)
	for _, year := range opts.RecentYears() {
		switch {
		case has(c.Qualifying, year):
			parts = append(parts, fmt.Sprintf("%d: %s", year, opts.QualifyingDistance))
		case has(c.Secondary, year):
			parts = append(parts, fmt.Sprintf("%d: %s", year, opts.SecondaryDistance))
		case has(c.DNF, year):
			parts = append(parts, fmt.Sprintf("%d: DNF", year))
		}
	}
	if len(parts) == 0 {
		return "No recent finishes"
	}
	return strings.Join(parts, " | ")
}

func nonNil(results []*history.Result) []*history.Result {
	if results == nil {
		return make([]*history.Result, 0)
	}
	return results
}
