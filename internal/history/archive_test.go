package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const combinedArchive = `[
  {"year": 2024, "distance": "50K", "did": 108870, "total_finishers": 1, "total_dnf": 1, "total_dns": 0,
   "finishers": [
     {"place": 1, "first_name": "Jane", "last_name": "Doe", "city": "Knoxville", "state": "TN", "age": 41, "division": "F", "status": "Finished", "finish_time_seconds": 37815},
     {"place": 2, "first_name": "John", "last_name": "Roe", "city": "Atlanta", "state": "GA", "age": null, "division": "M", "status": "DNF", "finish_time_seconds": null},
     {"place": 3, "first_name": "", "last_name": "Nameless", "status": "Finished"}
   ]},
  {"year": "bad"},
  {"year": 2025, "distance": "Marathon", "did": 119818,
   "finishers": [
     {"place": 1, "first_name": "John", "last_name": "Roe", "status": "Finished", "finish_time_seconds": 30000}
   ]}
]`

func TestDecodeArchive(t *testing.T) {
	archive, err := DecodeArchive([]byte(combinedArchive))
	if err != nil {
		t.Fatalf("DecodeArchive failed: %v", err)
	}

	if len(archive.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(archive.Entries))
	}
	// one undecodable entry + one nameless row
	if archive.Skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", archive.Skipped)
	}

	results := archive.Results()
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Year == 0 || r.Distance == "" {
			t.Errorf("expected rows to inherit year and distance, got %+v", r)
		}
	}

	years := archive.Years()
	if len(years) != 2 || years[0] != 2024 || years[1] != 2025 {
		t.Errorf("expected years [2024 2025], got %v", years)
	}
}

func TestDecodeArchiveRejectsNonList(t *testing.T) {
	if _, err := DecodeArchive([]byte(`{"year": 2024}`)); err == nil {
		t.Error("expected error for non-list archive")
	}
}

func TestLoadArchiveDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	files := map[string]string{
		"results_2023_50k.json":      `{"year": 2023, "distance": "50K", "finishers": [{"place": 1, "first_name": "Jane", "last_name": "Doe", "status": "Finished"}]}`,
		"results_2023_marathon.json": `{"year": 2023, "distance": "Marathon", "finishers": [{"place": 1, "first_name": "Ann", "last_name": "Lee", "status": "DNS"}]}`,
		"results_2022_50k.json":      `not json`,
		"notes.json":                 `{"ignored": true}`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(body), 0644); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}
	}

	archive, err := LoadArchive(tmpDir)
	if err != nil {
		t.Fatalf("LoadArchive failed: %v", err)
	}
	if len(archive.Entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(archive.Entries))
	}
	if archive.Skipped != 1 {
		t.Errorf("expected 1 skipped file, got %d", archive.Skipped)
	}
}

func TestLoadArchiveFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.json")

	entry := NewEntry(2024, "50K", 108870, []*Result{
		{Year: 2024, Distance: "50K", FirstName: "Jane", LastName: "Doe", Status: StatusFinished, FinishTimeSeconds: IntPtr(36000)},
		{Year: 2024, Distance: "50K", FirstName: "John", LastName: "Roe", Status: StatusDisqualified},
		{Year: 2024, Distance: "50K", FirstName: "Ann", LastName: "Lee", Status: StatusDNS},
	})
	if entry.TotalFinishers != 1 || entry.TotalDisqualified != 1 || entry.TotalDNS != 1 {
		t.Errorf("unexpected totals: %+v", entry)
	}

	if err := SaveArchive(path, &Archive{Entries: []*Entry{entry}}); err != nil {
		t.Fatalf("SaveArchive failed: %v", err)
	}

	loaded, err := LoadArchive(path)
	if err != nil {
		t.Fatalf("LoadArchive failed: %v", err)
	}
	if got := len(loaded.Results()); got != 3 {
		t.Errorf("expected 3 results, got %d", got)
	}
	if loaded.Entries[0].Finishers[1].Status != StatusDisqualified {
		t.Errorf("expected DQ status to survive, got %q", loaded.Entries[0].Finishers[1].Status)
	}
}

func TestLoadArchiveMissing(t *testing.T) {
	if _, err := LoadArchive(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing archive")
	}
}

func TestArchiveUpsert(t *testing.T) {
	a := &Archive{}
	first := NewEntry(2024, "50K", 108870, []*Result{{FirstName: "Jane", LastName: "Doe", Status: StatusFinished}})

	if replaced := a.Upsert(first); replaced {
		t.Error("expected first upsert to append")
	}

	again := NewEntry(2024, "50k", 108870, nil)
	if replaced := a.Upsert(again); !replaced {
		t.Error("expected same year and distance to be replaced")
	}
	if len(a.Entries) != 1 || a.Entries[0] != again {
		t.Errorf("expected one replaced entry, got %d", len(a.Entries))
	}

	a.Upsert(NewEntry(2024, "Marathon", 108871, nil))
	if len(a.Entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(a.Entries))
	}
}

func TestSaveEntryLoadsAsDirectory(t *testing.T) {
	dir := t.TempDir()
	e := NewEntry(2023, "Marathon", 97858, []*Result{
		{Place: 1, FirstName: "Jane", LastName: "Doe", Status: StatusFinished, FinishTimeSeconds: IntPtr(18000)},
		{Place: 2, FirstName: "John", LastName: "Roe", Status: StatusDNF},
	})

	if err := SaveEntry(dir, e); err != nil {
		t.Fatalf("SaveEntry() error = %v", err)
	}

	a, err := LoadArchive(dir)
	if err != nil {
		t.Fatalf("LoadArchive() error = %v", err)
	}
	if len(a.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(a.Entries))
	}
	got := a.Entries[0]
	if got.TotalFinishers != 1 || got.TotalDNF != 1 {
		t.Errorf("totals = %d/%d, want 1/1", got.TotalFinishers, got.TotalDNF)
	}
	if got.Finishers[0].Year != 2023 || got.Finishers[0].Distance != "Marathon" {
		t.Errorf("rows should inherit year and distance, got %d/%s", got.Finishers[0].Year, got.Finishers[0].Distance)
	}
}

func TestSaveArchiveReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.json")

	first := &Archive{Entries: []*Entry{
		NewEntry(2024, "50K", 1, []*Result{{FirstName: "Jane", LastName: "Doe", Status: StatusFinished}}),
		NewEntry(2024, "Marathon", 2, []*Result{{FirstName: "John", LastName: "Roe", Status: StatusFinished}}),
	}}
	if err := SaveArchive(path, first); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// A failed write must leave the previous archive untouched.
	blocked := filepath.Join(dir, "blocked.json")
	if err := os.MkdirAll(filepath.Join(blocked, "child"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := SaveArchive(blocked, first); err == nil {
		t.Fatal("expected SaveArchive onto a directory to fail")
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("existing archive changed by an unrelated failed write")
	}

	first.Upsert(NewEntry(2025, "50K", 3, nil))
	if err := SaveArchive(path, first); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadArchive(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(loaded.Entries))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			t.Errorf("unexpected temp file %s", e.Name())
		}
	}
}
