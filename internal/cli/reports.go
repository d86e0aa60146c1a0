package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/ultra-entrants/internal/analysis"
	"github.com/pfrederiksen/ultra-entrants/internal/history"
	"github.com/pfrederiksen/ultra-entrants/internal/logger"
	"github.com/pfrederiksen/ultra-entrants/internal/scraper"
	"github.com/pfrederiksen/ultra-entrants/internal/storage"
	"github.com/pfrederiksen/ultra-entrants/internal/veteran"
)

func (a *app) newChangedCmd() *cobra.Command {
	var eventKey string

	cmd := &cobra.Command{
		Use:   "changed",
		Short: "Report whether the latest run saw anyone join or drop",
		Long: `Read the event's change log and report its latest record.
Exits 2 when the latest run saw joins or drops, 0 otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.cfg.Event(eventKey); err != nil {
				return err
			}
			latest, err := a.store.LatestChange(eventKey)
			if err != nil {
				return fmt.Errorf("reading change log: %w", err)
			}
			if err := WriteChanged(a.stdout, eventKey, latest, a.outputFormat()); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			if latest.HasChanges() {
				return &exitCodeError{code: ExitChanges}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&eventKey, "event", "e", "frozen_head_50k", "Event key to check")

	return cmd
}

func (a *app) newVeteransCmd() *cobra.Command {
	var (
		eventKey    string
		archivePath string
		top         int
	)

	cmd := &cobra.Command{
		Use:   "veterans",
		Short: "Rank current entrants by their history at the event",
		Long: `Cross-reference the event's current roster against the historical results
archive and rank returning veterans by reliability index.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.cfg.Event(eventKey); err != nil {
				return err
			}
			snapshot, err := a.store.LoadSnapshot(eventKey)
			if err != nil {
				return fmt.Errorf("loading snapshot: %w", err)
			}
			if len(snapshot.Entrants) == 0 {
				return fmt.Errorf("no snapshot for %s: run track first", eventKey)
			}

			archive, err := a.loadArchive(archivePath)
			if err != nil {
				return err
			}

			opts := veteran.Options{
				QualifyingDistance: a.cfg.QualifyingDistance,
				SecondaryDistance:  a.cfg.SecondaryDistance,
				WindowStart:        a.cfg.WindowStart(),
				LastYear:           a.cfg.LastYear,
			}
			report := veteran.Build(snapshot.Entrants, archive.Results(), opts, a.now().UTC())

			logger.Info("Built veteran report", logger.Fields{
				"event":    eventKey,
				"entrants": len(snapshot.Entrants),
				"veterans": report.TotalVeterans,
			})
			logger.SetGauge(eventKey+"_veterans", float64(report.TotalVeterans))

			return WriteVeterans(a.stdout, report, top, a.outputFormat())
		},
	}

	cmd.Flags().StringVarP(&eventKey, "event", "e", "frozen_head_50k", "Event key whose roster to rank")
	cmd.Flags().StringVar(&archivePath, "archive", "", "Archive file or directory (overrides config)")
	cmd.Flags().IntVar(&top, "top", 25, "Number of veterans to list in text output (0 for all)")

	return cmd
}

func (a *app) newAnalyzeCmd() *cobra.Command {
	var eventKey string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Summarize an event's change log",
		Long: `Summarize an event's change log: admits, dropouts, daily admit rate,
projected days to capacity and recent activity. The CSV history is checked
against the JSON change log and a mismatch is reported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.cfg.Event(eventKey); err != nil {
				return err
			}
			changes, err := a.store.ReadChanges(eventKey)
			if err != nil {
				return fmt.Errorf("reading change log: %w", err)
			}

			history, err := a.store.ReadHistory(eventKey)
			if err != nil {
				return fmt.Errorf("reading history: %w", err)
			}

			now := a.now()
			summary := analysis.Summarize(changes, a.cfg.Capacity, now, a.cfg.RecentDays)
			summary.HistoryRows = len(history)
			if summary.HistoryRows != summary.RunsTracked {
				logger.Warn("History CSV and change log disagree", logger.Fields{
					"event":        eventKey,
					"history_rows": summary.HistoryRows,
					"changes":      summary.RunsTracked,
				})
			}
			return WriteSummary(a.stdout, eventKey, summary, now, a.outputFormat())
		},
	}

	cmd.Flags().StringVarP(&eventKey, "event", "e", "frozen_head_50k", "Event key to analyze")

	return cmd
}

// ArchiveReport bundles the historical archive statistics
type ArchiveReport struct {
	Years        []int                    `json:"years"`
	Skipped      int                      `json:"skipped_rows"`
	Yearly       []analysis.YearSummary   `json:"yearly_summary"`
	FinishTimes  []analysis.TimeStats     `json:"finish_statistics"`
	Demographics []analysis.Demographics  `json:"demographic_trends"`
	AgeGroups    []analysis.AgeGroupStats `json:"age_groups"`
	Locations    []analysis.LocationStats `json:"locations"`
}

func (a *app) newArchiveStatsCmd() *cobra.Command {
	var (
		archivePath string
		locations   int
	)

	cmd := &cobra.Command{
		Use:   "archive-stats",
		Short: "Report finish rates and demographics from the results archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := a.loadArchive(archivePath)
			if err != nil {
				return err
			}

			report := &ArchiveReport{
				Years:        archive.Years(),
				Skipped:      archive.Skipped,
				Yearly:       analysis.YearlySummary(archive),
				FinishTimes:  analysis.FinishTimeStats(archive),
				Demographics: analysis.DemographicTrends(archive),
				AgeGroups:    analysis.AgeGroups(archive, analysis.DefaultAgeGroups),
				Locations:    analysis.LocationAnalysis(archive, locations),
			}
			return WriteArchiveReport(a.stdout, report, a.outputFormat())
		},
	}

	cmd.Flags().StringVar(&archivePath, "archive", "", "Archive file or directory (overrides config)")
	cmd.Flags().IntVar(&locations, "locations", 100, "Number of top locations to report (0 for all)")

	return cmd
}

func (a *app) newImportResultsCmd() *cobra.Command {
	var (
		archivePath string
		htmlPath    string
		year        int
		distance    string
		did         int
	)

	cmd := &cobra.Command{
		Use:   "import-results",
		Short: "Add one year and distance of results to the archive from a saved results page",
		Long: `Parse a saved, fully rendered results page and store it in the archive as
the entry for the given year and distance, replacing any existing entry.
A directory archive gets one results_<year>_<distance>.json file per entry.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if year < a.cfg.FirstYear || year > a.cfg.LastYear {
				logger.Warn("Importing a year outside the configured archive range", logger.Fields{
					"year":       year,
					"first_year": a.cfg.FirstYear,
					"last_year":  a.cfg.LastYear,
				})
			}

			f, err := os.Open(htmlPath)
			if err != nil {
				return fmt.Errorf("opening results page: %w", err)
			}
			defer f.Close()

			rows, skipped, err := scraper.ParseResults(f, year, distance)
			if err != nil {
				return err
			}
			entry := history.NewEntry(year, distance, did, rows)
			entry.ScrapedAt = a.now().UTC().Format(time.RFC3339)

			path, err := a.archivePath(archivePath)
			if err != nil {
				return err
			}
			if err := saveEntry(path, entry); err != nil {
				return err
			}

			logger.Info("Imported results", logger.Fields{
				"year":      year,
				"distance":  distance,
				"rows":      len(rows),
				"skipped":   skipped,
				"finishers": entry.TotalFinishers,
			})
			return WriteImport(a.stdout, entry, skipped, a.outputFormat())
		},
	}

	cmd.Flags().StringVar(&archivePath, "archive", "", "Archive file or directory (overrides config)")
	cmd.Flags().StringVar(&htmlPath, "html", "", "Saved results page (required)")
	cmd.Flags().IntVar(&year, "year", 0, "Race year (required)")
	cmd.Flags().StringVar(&distance, "distance", "", "Distance label, e.g. 50K or Marathon (required)")
	cmd.Flags().IntVar(&did, "did", 0, "Registration site result id for the race")
	cmd.MarkFlagRequired("html")
	cmd.MarkFlagRequired("year")
	cmd.MarkFlagRequired("distance")

	return cmd
}

// archivePath resolves the archive location from a flag or config
func (a *app) archivePath(flag string) (string, error) {
	path := flag
	if path == "" {
		path = a.cfg.ArchivePath
	}
	return storage.ExpandHome(path)
}

func (a *app) loadArchive(flag string) (*history.Archive, error) {
	path, err := a.archivePath(flag)
	if err != nil {
		return nil, err
	}
	archive, err := history.LoadArchive(path)
	if err != nil {
		return nil, fmt.Errorf("loading archive: %w", err)
	}
	if archive.Skipped > 0 {
		logger.Warn("Skipped malformed archive rows", logger.Fields{
			"path":    path,
			"skipped": archive.Skipped,
		})
	}
	logger.Debug("Loaded archive", logger.Fields{"path": path, "entries": len(archive.Entries)})
	return archive, nil
}

// saveEntry stores an entry in a directory archive or merges it into a
// combined archive file, creating the file if needed
func saveEntry(path string, entry *history.Entry) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return history.SaveEntry(path, entry)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}

	archive := &history.Archive{}
	if _, err := os.Stat(path); err == nil {
		existing, err := history.LoadArchive(path)
		if err != nil {
			return fmt.Errorf("loading archive: %w", err)
		}
		archive = existing
	}
	archive.Upsert(entry)
	return history.SaveArchive(path, archive)
}
