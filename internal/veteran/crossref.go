package veteran

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/ultra-entrants/internal/entrant"
	"github.com/pfrederiksen/ultra-entrants/internal/history"
)

// Options configures cross-referencing and scoring
type Options struct {
	QualifyingDistance string
	SecondaryDistance  string
	WindowStart        int // first year of the recency window
	LastYear           int // last year of the recency window
}

// RecentYears returns the recency window, oldest first
func (o Options) RecentYears() []int {
	years := make([]int, 0)
	for y := o.WindowStart; y <= o.LastYear; y++ {
		years = append(years, y)
	}
	return years
}

func (o Options) inWindow(year int) bool {
	return year >= o.WindowStart && year <= o.LastYear
}

// Candidate is a current entrant with matching archive rows
type Candidate struct {
	JoinKey    string
	Entrant    *entrant.Entrant
	Qualifying []*history.Result // finishes at the qualifying distance
	Secondary  []*history.Result // finishes at the secondary distance
	DNF        []*history.Result // DNFs at either distance
}

// CrossReference joins current entrants to archive rows by normalized name.
//
// Only candidates with at least one qualifying-distance finish are returned,
// sorted by join key. DNS, DQ and unknown-status rows never count as finishes.
// When two current entrants share a join key, the one with the smallest
// snapshot key represents the veteran.
func CrossReference(entrants map[string]*entrant.Entrant, results []*history.Result, opts Options) []*Candidate {
	index := make(map[string]*entrant.Entrant)
	keys := make([]string, 0, len(entrants))
	for k := range entrants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e := entrants[k]
		if !e.Valid() {
			continue
		}
		joinKey := e.JoinKey()
		if _, taken := index[joinKey]; !taken {
			index[joinKey] = e
		}
	}

	candidates := make(map[string]*Candidate)
	for _, r := range results {
		if !r.Valid() {
			continue
		}
		joinKey := entrant.NormalizeName(r.FirstName, r.LastName)
		e, ok := index[joinKey]
		if !ok {
			continue
		}

		qualifying := strings.EqualFold(r.Distance, opts.QualifyingDistance)
		secondary := !qualifying && strings.EqualFold(r.Distance, opts.SecondaryDistance)
		if !qualifying && !secondary {
			continue
		}

		c := candidates[joinKey]
		if c == nil {
			c = &Candidate{JoinKey: joinKey, Entrant: e}
			candidates[joinKey] = c
		}

		switch {
		case r.Status == history.StatusDNF:
			c.DNF = append(c.DNF, r)
		case !r.Finished():
			// DNS, DQ and unknown rows are not finishes
		case qualifying:
			c.Qualifying = append(c.Qualifying, r)
		default:
			c.Secondary = append(c.Secondary, r)
		}
	}

	out := make([]*Candidate, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Qualifying) == 0 {
			continue
		}
		sortByYear(c.Qualifying)
		sortByYear(c.Secondary)
		sortByYear(c.DNF)
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].JoinKey < out[j].JoinKey
	})

	return out
}

func sortByYear(results []*history.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Year < results[j].Year
	})
}
