package entrant

import (
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	tests := []struct {
		first, last, region string
		want                string
	}{
		{"Jane", "Doe", "TN", "jane_doe_tn"},
		{"  Jane ", " Doe", " TN ", "jane_doe_tn"},
		{"JOHN", "O'Neil", "NC", "john_o'neil_nc"},
		{"Ana", "Li", "", "ana_li_"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Key(tt.first, tt.last, tt.region); got != tt.want {
				t.Errorf("Key(%q, %q, %q) = %q, expected %q", tt.first, tt.last, tt.region, got, tt.want)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		first, last string
		want        string
	}{
		{"Jane", "Doe", "jane doe"},
		{" JANE ", "DOE  ", "jane doe"},
		{"Mary Ann", "Smith", "mary ann smith"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := NormalizeName(tt.first, tt.last); got != tt.want {
				t.Errorf("NormalizeName(%q, %q) = %q, expected %q", tt.first, tt.last, got, tt.want)
			}
		})
	}

	// region is not part of the join key
	a := NewEntrant("Jane", "Doe", "Knoxville", "TN", "34")
	b := NewEntrant("Jane", "Doe", "Asheville", "NC", "35")
	if a.JoinKey() != b.JoinKey() {
		t.Error("expected join keys to match across regions")
	}
	if a.Key == b.Key {
		t.Error("expected snapshot keys to differ across regions")
	}
}

func TestCreateSnapshot(t *testing.T) {
	entrants := []*Entrant{
		NewEntrant("Jane", "Doe", "Knoxville", "TN", "34"),
		NewEntrant("John", "Roe", "Atlanta", "GA", ""),
		NewEntrant("", "Nobody", "X", "TN", "20"),
		NewEntrant("jane", "doe", "Oak Ridge", "tn", "34"),
	}
	ts := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC).Format(time.RFC3339)

	snap := CreateSnapshot(entrants, ts)

	if snap.Count != 2 {
		t.Errorf("expected 2 entrants (blank skipped, duplicate collapsed), got %d", snap.Count)
	}
	if snap.Discrepancy() != 0 {
		t.Errorf("expected no discrepancy, got %d", snap.Discrepancy())
	}
	if got := snap.Entrants["jane_doe_tn"].City; got != "Oak Ridge" {
		t.Errorf("expected later duplicate to win, got city %q", got)
	}
	if snap.ParsedTime().IsZero() {
		t.Error("expected snapshot timestamp to parse")
	}
	if keys := snap.Keys(); keys[0] != "jane_doe_tn" || keys[1] != "john_roe_ga" {
		t.Errorf("expected sorted keys, got %v", keys)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"2025-06-01T08:00:00Z", true},
		{"2025-06-01T08:00:00.123456", true},
		{"2025-06-01T08:00:00", true},
		{"2025-06-01", true},
		{"yesterday", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseTimestamp(tt.in)
			if got.IsZero() == tt.valid {
				t.Errorf("ParseTimestamp(%q) valid=%v, expected %v", tt.in, !got.IsZero(), tt.valid)
			}
		})
	}
}
