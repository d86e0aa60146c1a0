package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pfrederiksen/ultra-entrants/internal/storage"
)

// Entry holds the results of one year and one distance
type Entry struct {
	Year              int       `json:"year"`
	Distance          string    `json:"distance"`
	DID               int       `json:"did"`
	ScrapedAt         string    `json:"scraped_at,omitempty"`
	TotalFinishers    int       `json:"total_finishers"`
	TotalDNF          int       `json:"total_dnf"`
	TotalDNS          int       `json:"total_dns"`
	TotalDisqualified int       `json:"total_disqualified"`
	Finishers         []*Result `json:"finishers"`
}

// Archive is the union of all year × distance entries
type Archive struct {
	Entries []*Entry
	Skipped int // malformed rows dropped while loading
}

// NewEntry creates an entry from parsed rows and fills in the totals
func NewEntry(year int, distance string, did int, rows []*Result) *Entry {
	e := &Entry{
		Year:      year,
		Distance:  distance,
		DID:       did,
		Finishers: rows,
	}
	e.Recount()
	return e
}

// Recount recomputes the status totals from the rows
func (e *Entry) Recount() {
	e.TotalFinishers, e.TotalDNF, e.TotalDNS, e.TotalDisqualified = 0, 0, 0, 0
	for _, r := range e.Finishers {
		switch r.Status {
		case StatusFinished:
			e.TotalFinishers++
		case StatusDNF:
			e.TotalDNF++
		case StatusDNS:
			e.TotalDNS++
		case StatusDisqualified:
			e.TotalDisqualified++
		}
	}
}

// Results flattens the archive into one slice, in entry order. Rows inherit the
// entry's year and distance when they omit them. Invalid rows are left out.
func (a *Archive) Results() []*Result {
	if a == nil {
		return nil
	}
	out := make([]*Result, 0)
	for _, e := range a.Entries {
		for _, r := range e.Finishers {
			if r == nil {
				continue
			}
			if r.Year == 0 {
				r.Year = e.Year
			}
			if r.Distance == "" {
				r.Distance = e.Distance
			}
			if !r.Valid() {
				continue
			}
			out = append(out, r)
		}
	}
	return out
}

// Years returns the distinct years in the archive, ascending
func (a *Archive) Years() []int {
	seen := make(map[int]bool)
	years := make([]int, 0)
	for _, e := range a.Entries {
		if !seen[e.Year] {
			seen[e.Year] = true
			years = append(years, e.Year)
		}
	}
	sort.Ints(years)
	return years
}

// LoadArchive reads an archive from a path. A file holds a JSON list of entries
// (the combined archive); a directory holds one results_<year>_<distance>.json
// entry per file. Entries that fail to decode are skipped and counted.
func LoadArchive(path string) (*Archive, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}

	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading archive: %w", err)
		}
		return DecodeArchive(data)
	}

	files, err := filepath.Glob(filepath.Join(path, "results_*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing archive: %w", err)
	}
	sort.Strings(files)

	archive := &Archive{Entries: make([]*Entry, 0, len(files))}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", filepath.Base(f), err)
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			archive.Skipped++
			continue
		}
		archive.Entries = append(archive.Entries, &entry)
	}
	archive.normalize()
	return archive, nil
}

// DecodeArchive decodes a combined archive. Each entry is decoded on its own
// so one malformed entry doesn't sink the batch.
func DecodeArchive(data []byte) (*Archive, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing archive: %w", err)
	}

	archive := &Archive{Entries: make([]*Entry, 0, len(raw))}
	for _, msg := range raw {
		var entry Entry
		if err := json.Unmarshal(msg, &entry); err != nil {
			archive.Skipped++
			continue
		}
		archive.Entries = append(archive.Entries, &entry)
	}
	archive.normalize()
	return archive, nil
}

// SaveArchive writes the archive as a combined JSON list. The file is replaced
// atomically, so a failed write leaves the previous archive intact.
func SaveArchive(path string, a *Archive) error {
	data, err := json.MarshalIndent(a.Entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding archive: %w", err)
	}
	if err := storage.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	return nil
}

// EntryFileName is the per-entry file name used in archive directories
func EntryFileName(year int, distance string) string {
	return fmt.Sprintf("results_%d_%s.json", year, strings.ToLower(distance))
}

// SaveEntry writes one entry into an archive directory
func SaveEntry(dir string, e *Entry) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}
	if err := storage.WriteFileAtomic(filepath.Join(dir, EntryFileName(e.Year, e.Distance)), data); err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}
	return nil
}

// Upsert replaces the entry for the same year and distance, or appends it.
// It reports whether an existing entry was replaced.
func (a *Archive) Upsert(e *Entry) bool {
	for i, existing := range a.Entries {
		if existing.Year == e.Year && strings.EqualFold(existing.Distance, e.Distance) {
			a.Entries[i] = e
			return true
		}
	}
	a.Entries = append(a.Entries, e)
	return false
}

// normalize drops entries without a year and counts invalid rows
func (a *Archive) normalize() {
	kept := a.Entries[:0]
	for _, e := range a.Entries {
		if e.Year == 0 || strings.TrimSpace(e.Distance) == "" {
			a.Skipped++
			continue
		}
		rows := e.Finishers[:0]
		for _, r := range e.Finishers {
			if r == nil || strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" {
				a.Skipped++
				continue
			}
			if r.Year == 0 {
				r.Year = e.Year
			}
			if r.Distance == "" {
				r.Distance = e.Distance
			}
			if r.Status == "" {
				r.Status = StatusUnknown
			}
			rows = append(rows, r)
		}
		e.Finishers = rows
		kept = append(kept, e)
	}
	a.Entries = kept
}
