package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pfrederiksen/ultra-entrants/internal/analysis"
	"github.com/pfrederiksen/ultra-entrants/internal/entrant"
	"github.com/pfrederiksen/ultra-entrants/internal/history"
	"github.com/pfrederiksen/ultra-entrants/internal/veteran"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// maxListedEntrants caps joined/dropped names printed per event
const maxListedEntrants = 10

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// write dispatches on format
func write(w io.Writer, format OutputFormat, v interface{}, text func() error) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, v)
	case FormatText:
		return text()
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteTrackOutput writes the result of a track or track-all run
func WriteTrackOutput(w io.Writer, out *TrackOutput, format OutputFormat) error {
	return write(w, format, out, func() error {
		for _, res := range out.Results {
			fmt.Fprintf(w, "%s (%s)\n", res.EventName, res.EventKey)
			switch {
			case res.Error != "":
				fmt.Fprintf(w, "  ERROR: %s\n", res.Error)
			case res.FirstRun:
				fmt.Fprintf(w, "  First run: baseline of %s entrants recorded.\n", humanize.Comma(int64(res.Change.NewCount)))
			default:
				writeChangeText(w, res.Change)
			}
			fmt.Fprintln(w)
		}
		return nil
	})
}

func writeChangeText(w io.Writer, rec *entrant.ChangeRecord) {
	fmt.Fprintf(w, "  Previous count: %d\n", rec.PreviousCount)
	fmt.Fprintf(w, "  Current count:  %d\n", rec.NewCount)
	fmt.Fprintf(w, "  Net change:     %+d\n", rec.CountChange)
	fmt.Fprintf(w, "  New entrants:   %d\n", rec.TotalNew)
	fmt.Fprintf(w, "  Dropped:        %d\n", rec.TotalDropped)
	if rec.KeySetDiscrepancy != 0 {
		fmt.Fprintf(w, "  Note: count change differs from joins minus drops by %+d\n", rec.KeySetDiscrepancy)
	}

	writeEntrantList(w, "New Entrants", rec.NewEntrants)
	writeEntrantList(w, "Dropped Entrants", rec.DroppedEntrants)
}

func writeEntrantList(w io.Writer, title string, entrants []*entrant.Entrant) {
	if len(entrants) == 0 {
		return
	}
	fmt.Fprintf(w, "\n  --- %s (%d) ---\n", title, len(entrants))
	for i, e := range entrants {
		if i == maxListedEntrants {
			fmt.Fprintf(w, "    ... and %d more\n", len(entrants)-maxListedEntrants)
			break
		}
		fmt.Fprintf(w, "    %s (%s)\n", e.Name(), e.Region)
	}
}

// changedResult is the JSON shape of the changed command
type changedResult struct {
	EventKey string                `json:"event_key"`
	Changed  bool                  `json:"changed"`
	Latest   *entrant.ChangeRecord `json:"latest,omitempty"`
}

// WriteChanged writes the latest change record of an event
func WriteChanged(w io.Writer, eventKey string, latest *entrant.ChangeRecord, format OutputFormat) error {
	result := &changedResult{EventKey: eventKey, Changed: latest.HasChanges(), Latest: latest}
	return write(w, format, result, func() error {
		switch {
		case latest == nil:
			fmt.Fprintf(w, "No runs recorded for %s.\n", eventKey)
		case !result.Changed:
			fmt.Fprintf(w, "No changes in the latest run for %s (%s).\n", eventKey, latest.Timestamp)
		default:
			fmt.Fprintf(w, "Latest run for %s (%s) changed:\n", eventKey, latest.Timestamp)
			writeChangeText(w, latest)
		}
		return nil
	})
}

// WriteVeterans writes the ranked veteran report. Text output lists the
// top veterans; JSON always carries the full report.
func WriteVeterans(w io.Writer, report *veteran.Report, top int, format OutputFormat) error {
	return write(w, format, report, func() error {
		if report.TotalVeterans == 0 {
			fmt.Fprintln(w, "No returning veterans found.")
			return nil
		}

		fmt.Fprintf(w, "%d returning veterans (recent years %s)\n", report.TotalVeterans, yearRange(report.RecentYears))
		if q := report.Quartiles; q != nil {
			fmt.Fprintf(w, "Pace quartiles: %s / %s / %s\n",
				history.FormatSeconds(q.Q1), history.FormatSeconds(q.Q2), history.FormatSeconds(q.Q3))
		}
		fmt.Fprintln(w)

		for i, v := range report.Veterans {
			if top > 0 && i == top {
				fmt.Fprintf(w, "... and %d more\n", report.TotalVeterans-top)
				break
			}
			exp := v.Experience
			fmt.Fprintf(w, "%5s  %s %s (%s)\n", humanize.Ordinal(i+1), v.Name.First, v.Name.Last, v.Location.State)
			fmt.Fprintf(w, "       reliability %d | %d finishes over %d years | %d secondary | %d DNF\n",
				exp.ReliabilityIndex, exp.QualifyingFinishes, exp.YearsParticipated, exp.SecondaryFinishes, exp.DNFs)
			recent := exp.RecentSummary
			if exp.AvgRecentTime != "" {
				recent += " | avg " + exp.AvgRecentTime
			}
			fmt.Fprintf(w, "       %s | %s\n", exp.PaceTier, recent)
		}
		return nil
	})
}

func yearRange(years []int) string {
	switch len(years) {
	case 0:
		return "none"
	case 1:
		return fmt.Sprint(years[0])
	default:
		return fmt.Sprintf("%d-%d", years[0], years[len(years)-1])
	}
}

// WriteSummary writes the change log analysis of an event
func WriteSummary(w io.Writer, eventKey string, s *analysis.Summary, now time.Time, format OutputFormat) error {
	return write(w, format, s, func() error {
		rule := strings.Repeat("=", 60)
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "ENTRANT TRACKING ANALYSIS: %s\n", eventKey)
		fmt.Fprintln(w, rule)

		fmt.Fprintf(w, "\nCurrent Entrants:     %d\n", s.CurrentCount)
		fmt.Fprintf(w, "Total Waitlist Admits: %d\n", s.TotalAdmits)
		fmt.Fprintf(w, "Total Dropouts:       %d\n", s.TotalDropouts)
		fmt.Fprintf(w, "Runs Tracked:         %d\n", s.RunsTracked)
		fmt.Fprintf(w, "Average Daily Admits: %.2f\n", s.DailyAdmitRate)

		switch {
		case s.Projection.Unbounded:
			fmt.Fprintf(w, "Capacity %d: not reached at the current rate\n", s.Capacity)
		case s.ProjectedDate == nil:
			fmt.Fprintf(w, "Capacity %d: reached\n", s.Capacity)
		default:
			fmt.Fprintf(w, "Est. Days to %d:      %.1f\n", s.Capacity, s.Projection.Days)
			fmt.Fprintf(w, "Est. Date to reach %d: %s (%s)\n", s.Capacity,
				s.ProjectedDate.Format("2006-01-02"), humanize.RelTime(now, *s.ProjectedDate, "ago", "from now"))
		}

		if s.Discrepancies > 0 {
			fmt.Fprintf(w, "Runs with count/key-set discrepancies: %d\n", s.Discrepancies)
		}
		if s.HistoryRows != s.RunsTracked {
			fmt.Fprintf(w, "History CSV rows:     %d (change log has %d)\n", s.HistoryRows, s.RunsTracked)
		}

		if len(s.Recent) > 0 {
			fmt.Fprintf(w, "\n--- Last %d Days Activity ---\n", s.RecentDays)
			recent := s.Recent
			if len(recent) > 5 {
				recent = recent[len(recent)-5:]
			}
			for _, c := range recent {
				date := c.Timestamp
				if len(date) > 10 {
					date = date[:10]
				}
				fmt.Fprintf(w, "  %s | Count: %3d | Change: %+3d (%d joined, %d dropped)\n",
					date, c.NewCount, c.CountChange, c.TotalNew, c.TotalDropped)
			}
		}
		fmt.Fprintln(w, "\n"+rule)
		return nil
	})
}

// WriteArchiveReport writes the historical archive statistics
func WriteArchiveReport(w io.Writer, r *ArchiveReport, format OutputFormat) error {
	return write(w, format, r, func() error {
		fmt.Fprintf(w, "Archive years: %s", yearRange(r.Years))
		if r.Skipped > 0 {
			fmt.Fprintf(w, " (%d malformed rows skipped)", r.Skipped)
		}
		fmt.Fprintln(w)

		fmt.Fprintln(w, "\nYear  Distance   Starters  Finished  DNF  DNS  DQ  Finish%  Avg(h)")
		for _, y := range r.Yearly {
			avg := "-"
			if y.AvgFinishHours != nil {
				avg = fmt.Sprintf("%.2f", *y.AvgFinishHours)
			}
			fmt.Fprintf(w, "%d  %-9s  %8d  %8d  %3d  %3d  %2d  %6.1f%%  %6s\n",
				y.Year, y.Distance, y.Starters, y.Finishers, y.DNF, y.DNS, y.DQ, 100*y.Rate, avg)
		}

		if len(r.Locations) > 0 {
			fmt.Fprintln(w, "\nTop locations:")
			for i, loc := range r.Locations {
				if i == 10 {
					break
				}
				fmt.Fprintf(w, "  %-28s %4d participants, %5.1f%% finished\n", loc.Location, loc.Total, 100*loc.Rate)
			}
		}
		return nil
	})
}

// importResult is the JSON shape of the import-results command
type importResult struct {
	Year      int    `json:"year"`
	Distance  string `json:"distance"`
	Rows      int    `json:"rows"`
	Skipped   int    `json:"skipped"`
	Finishers int    `json:"finishers"`
	DNF       int    `json:"dnf"`
	DNS       int    `json:"dns"`
	DQ        int    `json:"disqualified"`
}

// WriteImport writes the outcome of importing one results page
func WriteImport(w io.Writer, e *history.Entry, skipped int, format OutputFormat) error {
	result := &importResult{
		Year:      e.Year,
		Distance:  e.Distance,
		Rows:      len(e.Finishers),
		Skipped:   skipped,
		Finishers: e.TotalFinishers,
		DNF:       e.TotalDNF,
		DNS:       e.TotalDNS,
		DQ:        e.TotalDisqualified,
	}
	return write(w, format, result, func() error {
		fmt.Fprintf(w, "Imported %d %s: %d rows (%d finished, %d DNF, %d DNS, %d DQ), %d skipped\n",
			e.Year, e.Distance, result.Rows, result.Finishers, result.DNF, result.DNS, result.DQ, skipped)
		return nil
	})
}
