package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/ultra-entrants/internal/entrant"
	"github.com/pfrederiksen/ultra-entrants/internal/logger"
	"github.com/pfrederiksen/ultra-entrants/internal/notifier"
)

// maxParallelEvents bounds concurrent scrapes in track-all
const maxParallelEvents = 4

// TrackResult is the outcome of tracking one event
type TrackResult struct {
	EventKey  string                `json:"event_key"`
	EventName string                `json:"event_name"`
	FirstRun  bool                  `json:"first_run"`
	Change    *entrant.ChangeRecord `json:"change,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// TrackOutput is the result of a track or track-all run
type TrackOutput struct {
	RunID     string         `json:"run_id"`
	CheckedAt time.Time      `json:"checked_at"`
	Results   []*TrackResult `json:"results"`
}

func (a *app) newTrackCmd() *cobra.Command {
	var eventKey string

	cmd := &cobra.Command{
		Use:   "track",
		Short: "Scrape one event's entrant list and record joins and drops",
		Long: `Scrape one event's entrant list, diff it against the previous snapshot,
append the change to the event's change log and CSV history, then save the new
snapshot. Exits 2 when anyone joined or dropped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTrack(cmd.Context(), []string{eventKey})
		},
	}

	cmd.Flags().StringVarP(&eventKey, "event", "e", "frozen_head_50k", "Event key to track")

	return cmd
}

func (a *app) newTrackAllCmd() *cobra.Command {
	var only []string

	cmd := &cobra.Command{
		Use:   "track-all",
		Short: "Track every configured event in parallel",
		Long: `Track every configured event. Events own separate files and run in
parallel; one event failing does not stop the others. Exits 1 if any event
failed, otherwise 2 when any event changed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := a.cfg.EventKeys()
			if len(only) > 0 {
				keys = only
			}
			return a.runTrack(cmd.Context(), keys)
		},
	}

	cmd.Flags().StringSliceVar(&only, "events", nil, "Comma-separated event keys to track (default all configured)")

	return cmd
}

// runTrack tracks each event and reports the combined outcome
func (a *app) runTrack(ctx context.Context, keys []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	n, err := a.newNotifier()
	if err != nil {
		return fmt.Errorf("initializing notifier: %w", err)
	}

	// one writer per event
	keys = lo.Uniq(keys)

	start := time.Now()
	results := make([]*TrackResult, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelEvents)
	var notifyMu sync.Mutex

	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			res := a.trackEvent(gctx, key)
			results[i] = res

			if res.Error == "" && n != nil && notifier.ShouldNotify(res.Change) {
				notifyMu.Lock()
				defer notifyMu.Unlock()
				if err := n.Notify(res.EventName, res.Change); err != nil {
					logger.Error("Notification failed", logger.Fields{"event": key}, err)
				}
			}
			// failures are reported per event so the others keep running
			return nil
		})
	}
	_ = g.Wait()

	logger.RecordTiming("run_duration", time.Since(start))

	out := &TrackOutput{
		RunID:     a.runID,
		CheckedAt: a.now().UTC(),
		Results:   results,
	}
	if err := WriteTrackOutput(a.stdout, out, a.outputFormat()); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	changed := false
	for _, res := range results {
		if res.Error != "" {
			logger.IncrCounter("runs_failed")
			return &exitCodeError{code: ExitError}
		}
		if res.Change.HasChanges() {
			changed = true
		}
	}
	logger.IncrCounter("runs_completed")

	if changed {
		return &exitCodeError{code: ExitChanges}
	}
	return nil
}

// trackEvent runs one event end to end: scrape, diff, commit. Nothing is
// written unless the scrape succeeds, and the snapshot is only replaced once
// the change log append has succeeded.
func (a *app) trackEvent(ctx context.Context, key string) *TrackResult {
	res := &TrackResult{EventKey: key, EventName: key}
	fields := logger.Fields{"event": key}

	fail := func(msg string, err error) *TrackResult {
		logger.Error(msg, fields, err)
		res.Error = fmt.Sprintf("%s: %v", msg, err)
		return res
	}

	src, err := a.cfg.Event(key)
	if err != nil {
		return fail("unknown event", err)
	}
	res.EventName = src.Name

	current, err := a.scraper.FetchSnapshot(ctx, src.URL, a.now())
	if err != nil {
		return fail("scraping entrants", err)
	}
	logger.Info("Scraped entrant list", logger.Fields{"event": key, "count": current.Count})
	logger.SetGauge(key+"_entrants", float64(current.Count))

	previous, err := a.store.LoadSnapshot(key)
	if err != nil {
		return fail("loading snapshot", err)
	}

	rec := entrant.Diff(previous, current)
	res.FirstRun = previous.Count == 0
	res.Change = rec

	if rec.KeySetDiscrepancy != 0 {
		logger.Warn("Count change disagrees with entrant key sets", logger.Fields{
			"event":        key,
			"count_change": rec.CountChange,
			"total_new":    rec.TotalNew,
			"total_drop":   rec.TotalDropped,
			"discrepancy":  rec.KeySetDiscrepancy,
		})
	}

	if err := a.store.CommitRun(key, rec, current); err != nil {
		return fail("saving run", err)
	}

	logger.Info("Recorded change", logger.Fields{
		"event":        key,
		"first_run":    res.FirstRun,
		"count_change": rec.CountChange,
		"new":          rec.TotalNew,
		"dropped":      rec.TotalDropped,
	})
	return res
}
