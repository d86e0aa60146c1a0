package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pfrederiksen/ultra-entrants/internal/entrant"
)

// HistoryHeader is the header row of the flattened CSV history
var HistoryHeader = []string{"Date", "Total_Entrants", "Previous_Count", "New_Entrants", "Dropped_Entrants", "Net_Change"}

// HistoryRow is one flattened change record
type HistoryRow struct {
	Date            string `json:"date"`
	TotalEntrants   int    `json:"total_entrants"`
	PreviousCount   int    `json:"previous_count"`
	NewEntrants     int    `json:"new_entrants"`
	DroppedEntrants int    `json:"dropped_entrants"`
	NetChange       int    `json:"net_change"`
}

// HistoryRowFor flattens a change record
func HistoryRowFor(rec *entrant.ChangeRecord) HistoryRow {
	return HistoryRow{
		Date:            rec.Timestamp,
		TotalEntrants:   rec.NewCount,
		PreviousCount:   rec.PreviousCount,
		NewEntrants:     rec.TotalNew,
		DroppedEntrants: rec.TotalDropped,
		NetChange:       rec.CountChange,
	}
}

func (r HistoryRow) record() []string {
	return []string{
		r.Date,
		strconv.Itoa(r.TotalEntrants),
		strconv.Itoa(r.PreviousCount),
		strconv.Itoa(r.NewEntrants),
		strconv.Itoa(r.DroppedEntrants),
		strconv.Itoa(r.NetChange),
	}
}

// AppendChange appends a change record to the event's change log and one row to
// its CSV history. The JSON list is replaced atomically first and the CSV row is
// appended second. If the CSV write fails the JSON list is put back, so a failed
// append leaves both files as they were.
func (s *Storage) AppendChange(eventKey string, rec *entrant.ChangeRecord) error {
	_, err := s.appendChange(eventKey, rec)
	return err
}

func (s *Storage) appendChange(eventKey string, rec *entrant.ChangeRecord) (*changeLogState, error) {
	if rec == nil {
		return nil, fmt.Errorf("appending change: nil record")
	}

	state, err := s.captureChangeLog(eventKey)
	if err != nil {
		return nil, err
	}

	changes, err := s.ReadChanges(eventKey)
	if err != nil {
		return nil, err
	}
	changes = append(changes, rec)

	data, err := json.MarshalIndent(changes, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding changes: %w", err)
	}

	if err := WriteFileAtomic(state.changesPath, data); err != nil {
		return nil, fmt.Errorf("writing changes: %w", err)
	}

	if err := s.appendHistory(eventKey, HistoryRowFor(rec)); err != nil {
		if rerr := state.restoreChanges(); rerr != nil {
			return nil, fmt.Errorf("writing history: %w (restoring changes: %v)", err, rerr)
		}
		return nil, fmt.Errorf("writing history: %w", err)
	}

	return state, nil
}

// changeLogState is an event's change log as it was before an append
type changeLogState struct {
	changesPath string
	changes     []byte
	hadChanges  bool

	historyPath string
	historySize int64
	hadHistory  bool
}

func (s *Storage) captureChangeLog(eventKey string) (*changeLogState, error) {
	changesPath, err := s.path("changes", eventKey, "json")
	if err != nil {
		return nil, err
	}
	historyPath, err := s.path("history", eventKey, "csv")
	if err != nil {
		return nil, err
	}

	state := &changeLogState{changesPath: changesPath, historyPath: historyPath}

	data, err := os.ReadFile(changesPath)
	switch {
	case err == nil:
		state.changes, state.hadChanges = data, true
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("reading changes: %w", err)
	}

	if info, err := os.Stat(historyPath); err == nil && info.Mode().IsRegular() {
		state.historySize, state.hadHistory = info.Size(), true
	}
	return state, nil
}

func (c *changeLogState) restoreChanges() error {
	if !c.hadChanges {
		if err := os.Remove(c.changesPath); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return WriteFileAtomic(c.changesPath, c.changes)
}

func (c *changeLogState) restoreHistory() error {
	if !c.hadHistory {
		if err := os.Remove(c.historyPath); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return os.Truncate(c.historyPath, c.historySize)
}

// rollback puts both log files back
func (c *changeLogState) rollback() error {
	return errors.Join(c.restoreChanges(), c.restoreHistory())
}

// ReadChanges returns an event's change log in append order. A missing log is
// empty; a log that doesn't parse is an error rather than silently restarted.
func (s *Storage) ReadChanges(eventKey string) ([]*entrant.ChangeRecord, error) {
	path, err := s.path("changes", eventKey, "json")
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make([]*entrant.ChangeRecord, 0), nil
		}
		return nil, fmt.Errorf("reading changes: %w", err)
	}

	var changes []*entrant.ChangeRecord
	if err := json.Unmarshal(data, &changes); err != nil {
		return nil, fmt.Errorf("parsing changes: %w", err)
	}
	if changes == nil {
		changes = make([]*entrant.ChangeRecord, 0)
	}
	return changes, nil
}

// LatestChange returns the most recent change record, or nil if there is none
func (s *Storage) LatestChange(eventKey string) (*entrant.ChangeRecord, error) {
	changes, err := s.ReadChanges(eventKey)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, nil
	}
	return changes[len(changes)-1], nil
}

func (s *Storage) appendHistory(eventKey string, row HistoryRow) error {
	path, err := s.path("history", eventKey, "csv")
	if err != nil {
		return err
	}

	_, statErr := os.Stat(path)
	needHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(HistoryHeader); err != nil {
			return err
		}
	}
	if err := w.Write(row.record()); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// ReadHistory returns an event's CSV history rows. Rows with non-numeric
// columns are skipped.
func (s *Storage) ReadHistory(eventKey string) ([]HistoryRow, error) {
	path, err := s.path("history", eventKey, "csv")
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []HistoryRow{}, nil
		}
		return nil, fmt.Errorf("reading history: %w", err)
	}
	defer f.Close()

	rows, err := parseHistory(f)
	if err != nil {
		return nil, fmt.Errorf("parsing history: %w", err)
	}
	return rows, nil
}

func parseHistory(r io.Reader) ([]HistoryRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([]HistoryRow, 0, len(records))
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && rec[0] == HistoryHeader[0] {
			continue
		}
		if len(rec) != len(HistoryHeader) {
			continue
		}
		nums := make([]int, 5)
		ok := true
		for j := 1; j < len(rec); j++ {
			n, err := strconv.Atoi(rec[j])
			if err != nil {
				ok = false
				break
			}
			nums[j-1] = n
		}
		if !ok {
			continue
		}
		rows = append(rows, HistoryRow{
			Date:            rec[0],
			TotalEntrants:   nums[0],
			PreviousCount:   nums[1],
			NewEntrants:     nums[2],
			DroppedEntrants: nums[3],
			NetChange:       nums[4],
		})
	}
	return rows, nil
}
