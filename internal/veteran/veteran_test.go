package veteran

import (
	"testing"
	"time"

	"github.com/pfrederiksen/ultra-entrants/internal/entrant"
	"github.com/pfrederiksen/ultra-entrants/internal/history"
)

var testOpts = Options{
	QualifyingDistance: "50K",
	SecondaryDistance:  "Marathon",
	WindowStart:        2022,
	LastYear:           2025,
}

func result(first, last string, year int, distance string, status history.Status, seconds int, place int) *history.Result {
	r := &history.Result{
		Year:      year,
		Distance:  distance,
		FirstName: first,
		LastName:  last,
		Status:    status,
		Place:     place,
	}
	if seconds > 0 {
		r.FinishTimeSeconds = history.IntPtr(seconds)
	}
	return r
}

func finish(first, last string, year int, distance string) *history.Result {
	return result(first, last, year, distance, history.StatusFinished, 0, 0)
}

func roster(entrants ...*entrant.Entrant) map[string]*entrant.Entrant {
	m := make(map[string]*entrant.Entrant)
	for _, e := range entrants {
		m[e.Key] = e
	}
	return m
}

func TestCrossReference(t *testing.T) {
	current := roster(
		entrant.NewEntrant("Jane", "Doe", "Knoxville", "TN", "F40-49"),
		entrant.NewEntrant("John", "Roe", "Atlanta", "GA", "M30-39"),
		entrant.NewEntrant("Ann", "Lee", "Nashville", "TN", "F20-29"),
		entrant.NewEntrant("Bea", "Kim", "Boone", "NC", "F50-59"),
	)

	results := []*history.Result{
		finish("JANE", "doe", 2024, "50K"),
		finish("Jane", "Doe", 2021, "Marathon"),
		result("Jane", "Doe", 2023, "50K", history.StatusDNF, 0, 0),
		// marathon-only runner is dropped
		finish("John", "Roe", 2024, "Marathon"),
		// DNF-only runner is dropped
		result("Ann", "Lee", 2024, "50K", history.StatusDNF, 0, 0),
		// DNS never counts as a finish
		result("Bea", "Kim", 2024, "50K", history.StatusDNS, 0, 0),
		// not a current entrant
		finish("Zed", "Zero", 2024, "50K"),
		// unknown distance
		finish("John", "Roe", 2024, "100K"),
	}

	candidates := CrossReference(current, results, testOpts)

	if len(candidates) != 1 {
		t.Fatalf("expected 1 veteran, got %d", len(candidates))
	}
	c := candidates[0]
	if c.JoinKey != "jane doe" {
		t.Errorf("expected jane doe, got %q", c.JoinKey)
	}
	if len(c.Qualifying) != 1 || len(c.Secondary) != 1 || len(c.DNF) != 1 {
		t.Errorf("expected 1/1/1 qualifying/secondary/dnf, got %d/%d/%d", len(c.Qualifying), len(c.Secondary), len(c.DNF))
	}
	if c.Entrant.City != "Knoxville" {
		t.Errorf("expected location from current entrant, got %q", c.Entrant.City)
	}
}

func TestCrossReferenceOrdering(t *testing.T) {
	current := roster(
		entrant.NewEntrant("Zoe", "Adams", "", "TN", ""),
		entrant.NewEntrant("Amy", "Zane", "", "TN", ""),
		entrant.NewEntrant("Max", "Moe", "", "TN", ""),
	)
	results := []*history.Result{
		finish("Zoe", "Adams", 2020, "50K"),
		finish("Max", "Moe", 2020, "50K"),
		finish("Amy", "Zane", 2020, "50K"),
	}

	candidates := CrossReference(current, results, testOpts)
	want := []string{"amy zane", "max moe", "zoe adams"}
	if len(candidates) != len(want) {
		t.Fatalf("expected %d candidates, got %d", len(want), len(candidates))
	}
	for i, c := range candidates {
		if c.JoinKey != want[i] {
			t.Errorf("candidate %d = %q, want %q", i, c.JoinKey, want[i])
		}
	}
}

func TestCrossReferenceNameCollision(t *testing.T) {
	// same name, different region: one veteran, represented by the smaller key
	current := roster(
		entrant.NewEntrant("Sam", "Hill", "Asheville", "NC", ""),
		entrant.NewEntrant("Sam", "Hill", "Knoxville", "TN", ""),
	)
	results := []*history.Result{finish("Sam", "Hill", 2024, "50K")}

	candidates := CrossReference(current, results, testOpts)
	if len(candidates) != 1 {
		t.Fatalf("expected names to merge into 1 veteran, got %d", len(candidates))
	}
	if candidates[0].Entrant.Region != "NC" {
		t.Errorf("expected sam_hill_nc to represent the veteran, got %q", candidates[0].Entrant.Region)
	}
}

func TestScoreExample(t *testing.T) {
	c := &Candidate{
		JoinKey: "jane doe",
		Entrant: entrant.NewEntrant("Jane", "Doe", "Knoxville", "TN", "F40-49"),
		Qualifying: []*history.Result{
			finish("Jane", "Doe", 2018, "50K"),
			finish("Jane", "Doe", 2019, "50K"),
			finish("Jane", "Doe", 2019, "50K"),
			result("Jane", "Doe", 2024, "50K", history.StatusFinished, 36000, 10),
			result("Jane", "Doe", 2025, "50K", history.StatusFinished, 34000, 6),
		},
		Secondary: []*history.Result{finish("Jane", "Doe", 2018, "Marathon")},
	}

	rec := Score(c, testOpts)
	exp := rec.Experience

	if exp.QualifyingFinishes != 5 || exp.YearsParticipated != 4 || exp.SecondaryFinishes != 1 {
		t.Fatalf("unexpected inputs: %+v", exp)
	}
	if exp.RecencyBonus != 14 {
		t.Errorf("recency bonus = %d, want 14", exp.RecencyBonus)
	}
	if exp.ReliabilityIndex != 124 {
		t.Errorf("reliability index = %d, want 124", exp.ReliabilityIndex)
	}
	if exp.ConsistencyRate != 125 {
		t.Errorf("consistency rate = %d, want 125", exp.ConsistencyRate)
	}
	if exp.AvgRecentTimeSeconds == nil || *exp.AvgRecentTimeSeconds != 35000 {
		t.Errorf("avg recent time = %v, want 35000", exp.AvgRecentTimeSeconds)
	}
	if exp.AvgRecentTime != "9:43:20" {
		t.Errorf("avg recent time formatted = %q, want 9:43:20", exp.AvgRecentTime)
	}
	if exp.AvgRecentPosition == nil || *exp.AvgRecentPosition != 8 {
		t.Errorf("avg recent position = %v, want 8", exp.AvgRecentPosition)
	}
	if exp.RecentFinishesCount != 2 {
		t.Errorf("recent finishes = %d, want 2", exp.RecentFinishesCount)
	}
	if exp.RecentSummary != "2024: 50K | 2025: 50K" {
		t.Errorf("recent summary = %q", exp.RecentSummary)
	}
	if exp.PaceTier != "" {
		t.Errorf("expected pace tier to be unset after phase one, got %q", exp.PaceTier)
	}
	if rec.Location.State != "TN" || rec.AgeCategory != "F40-49" {
		t.Errorf("expected identity from current entrant, got %+v / %q", rec.Location, rec.AgeCategory)
	}
}

func TestScoreRoundsAveragePosition(t *testing.T) {
	c := &Candidate{
		JoinKey: "jane doe",
		Entrant: entrant.NewEntrant("Jane", "Doe", "Knoxville", "TN", ""),
		Qualifying: []*history.Result{
			result("Jane", "Doe", 2023, "50K", history.StatusFinished, 30000, 3),
			result("Jane", "Doe", 2024, "50K", history.StatusFinished, 31000, 4),
			result("Jane", "Doe", 2025, "50K", history.StatusFinished, 32000, 4),
		},
	}

	exp := Score(c, testOpts).Experience
	if exp.AvgRecentPosition == nil || *exp.AvgRecentPosition != 4 {
		t.Errorf("avg recent position = %v, want 4 (11/3 rounded)", exp.AvgRecentPosition)
	}
}

func TestScoreNoRecentData(t *testing.T) {
	c := &Candidate{
		JoinKey:    "old timer",
		Entrant:    entrant.NewEntrant("Old", "Timer", "", "TN", ""),
		Qualifying: []*history.Result{finish("Old", "Timer", 2015, "50K")},
		DNF:        []*history.Result{result("Old", "Timer", 2023, "50K", history.StatusDNF, 0, 0)},
	}

	exp := Score(c, testOpts).Experience
	if exp.RecencyBonus != 0 {
		t.Errorf("expected no recency bonus, got %d", exp.RecencyBonus)
	}
	if exp.AvgRecentTimeSeconds != nil || exp.AvgRecentPosition != nil {
		t.Error("expected nil recent averages")
	}
	if exp.RecentSummary != "2023: DNF" {
		t.Errorf("recent summary = %q, want 2023: DNF", exp.RecentSummary)
	}
	if exp.ReliabilityIndex != 25 {
		t.Errorf("reliability index = %d, want 25", exp.ReliabilityIndex)
	}
}

func TestRecencyBonusWeights(t *testing.T) {
	tests := []struct {
		year int
		want int
	}{
		{2021, 0},
		{2022, 2},
		{2023, 4},
		{2024, 6},
		{2025, 8},
		{2026, 0}, // outside the window
	}

	for _, tt := range tests {
		c := &Candidate{
			Entrant:    entrant.NewEntrant("A", "B", "", "", ""),
			Qualifying: []*history.Result{finish("A", "B", tt.year, "50K")},
		}
		if got := Score(c, testOpts).Experience.RecencyBonus; got != tt.want {
			t.Errorf("year %d: bonus = %d, want %d", tt.year, got, tt.want)
		}
	}
}

func TestReliabilityMonotonicity(t *testing.T) {
	base := func() *Candidate {
		return &Candidate{
			Entrant: entrant.NewEntrant("Jane", "Doe", "", "TN", ""),
			Qualifying: []*history.Result{
				finish("Jane", "Doe", 2016, "50K"),
				finish("Jane", "Doe", 2023, "50K"),
			},
			Secondary: []*history.Result{finish("Jane", "Doe", 2017, "Marathon")},
		}
	}
	baseline := Score(base(), testOpts).Experience.ReliabilityIndex

	for _, year := range []int{2016, 2017, 2023} {
		more := base()
		more.Qualifying = append(more.Qualifying, finish("Jane", "Doe", year, "50K"))
		if got := Score(more, testOpts).Experience.ReliabilityIndex; got <= baseline {
			t.Errorf("adding a %d qualifying finish: index %d not above %d", year, got, baseline)
		}

		secondary := base()
		secondary.Secondary = append(secondary.Secondary, finish("Jane", "Doe", year, "Marathon"))
		if got := Score(secondary, testOpts).Experience.ReliabilityIndex; got >= baseline {
			t.Errorf("adding a %d secondary finish: index %d not below %d", year, got, baseline)
		}
	}

	if ReliabilityIndex(6, 4, 1, 14) <= ReliabilityIndex(5, 4, 1, 14) {
		t.Error("expected more qualifying finishes to raise the index")
	}
	if ReliabilityIndex(5, 4, 2, 14) >= ReliabilityIndex(5, 4, 1, 14) {
		t.Error("expected more secondary finishes to lower the index")
	}
}

func TestBuild(t *testing.T) {
	current := roster(
		entrant.NewEntrant("Jane", "Doe", "Knoxville", "TN", ""),
		entrant.NewEntrant("John", "Roe", "Atlanta", "GA", ""),
		entrant.NewEntrant("Ann", "Lee", "Nashville", "TN", ""),
		entrant.NewEntrant("New", "Comer", "Memphis", "TN", ""),
	)
	results := []*history.Result{
		// Jane: 3 qualifying finishes over 3 years
		result("Jane", "Doe", 2020, "50K", history.StatusFinished, 40000, 30),
		result("Jane", "Doe", 2023, "50K", history.StatusFinished, 39000, 25),
		result("Jane", "Doe", 2025, "50K", history.StatusFinished, 38000, 20),
		// John: 1 qualifying finish, 1 marathon
		result("John", "Roe", 2024, "50K", history.StatusFinished, 30000, 3),
		finish("John", "Roe", 2022, "Marathon"),
		// Ann: one old finish, no recent time
		finish("Ann", "Lee", 2016, "50K"),
	}

	report := Build(current, results, testOpts, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	if report.TotalVeterans != 3 {
		t.Fatalf("expected 3 veterans, got %d", report.TotalVeterans)
	}
	order := []string{"jane doe", "john roe", "ann lee"}
	for i, want := range order {
		if report.Veterans[i].JoinKey != want {
			t.Errorf("rank %d = %q, want %q", i+1, report.Veterans[i].JoinKey, want)
		}
	}
	for i := 1; i < len(report.Veterans); i++ {
		if report.Veterans[i-1].Experience.ReliabilityIndex < report.Veterans[i].Experience.ReliabilityIndex {
			t.Error("veterans not sorted by reliability index")
		}
	}

	if report.Quartiles == nil {
		t.Fatal("expected pace quartiles")
	}
	tiers := map[string]PaceTier{}
	for _, v := range report.Veterans {
		tiers[v.JoinKey] = v.Experience.PaceTier
	}
	if tiers["ann lee"] != TierNoData {
		t.Errorf("ann lee tier = %q, want %q", tiers["ann lee"], TierNoData)
	}
	if tiers["john roe"] != TierElite {
		t.Errorf("john roe tier = %q, want %q", tiers["john roe"], TierElite)
	}
	if len(report.RecentYears) != 4 {
		t.Errorf("expected 4 recent years, got %v", report.RecentYears)
	}
}

func TestRankTieBreak(t *testing.T) {
	records := []*Record{
		{JoinKey: "c", Experience: Experience{ReliabilityIndex: 50, YearsParticipated: 2}},
		{JoinKey: "b", Experience: Experience{ReliabilityIndex: 50, YearsParticipated: 3}},
		{JoinKey: "a", Experience: Experience{ReliabilityIndex: 50, YearsParticipated: 2}},
		{JoinKey: "d", Experience: Experience{ReliabilityIndex: 70, YearsParticipated: 1}},
	}
	Rank(records)

	want := []string{"d", "b", "a", "c"}
	for i, r := range records {
		if r.JoinKey != want[i] {
			t.Errorf("position %d = %q, want %q", i, r.JoinKey, want[i])
		}
	}
}
