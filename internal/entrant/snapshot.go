package entrant

import (
	"sort"
	"time"
)

// Snapshot represents an event's full roster at a point in time
type Snapshot struct {
	Count     int                 `json:"count"`
	Entrants  map[string]*Entrant `json:"entrants"` // keyed by Entrant.Key
	Timestamp string              `json:"timestamp"`
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Entrants: make(map[string]*Entrant),
	}
}

// CreateSnapshot creates a snapshot from a list of entrants.
// Entrants without a first and last name are skipped. Later duplicates of the
// same key replace earlier ones, and Count is the number of distinct keys.
func CreateSnapshot(entrants []*Entrant, timestamp string) *Snapshot {
	snap := NewSnapshot()
	snap.Timestamp = timestamp

	for _, e := range entrants {
		if !e.Valid() {
			continue
		}
		if e.Key == "" {
			e.Key = Key(e.FirstName, e.LastName, e.Region)
		}
		snap.Entrants[e.Key] = e
	}
	snap.Count = len(snap.Entrants)

	return snap
}

// Keys returns the snapshot's entrant keys in sorted order
func (s *Snapshot) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.Entrants))
	for k := range s.Entrants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Discrepancy returns Count minus the number of keyed entrants. It is non-zero
// when the upstream count heuristic and the parsed table disagree.
func (s *Snapshot) Discrepancy() int {
	if s == nil {
		return 0
	}
	return s.Count - len(s.Entrants)
}

// ParsedTime returns the snapshot timestamp, or the zero time if it cannot be parsed
func (s *Snapshot) ParsedTime() time.Time {
	if s == nil {
		return time.Time{}
	}
	return ParseTimestamp(s.Timestamp)
}

// timestampLayouts lists the formats seen in stored snapshots and change logs.
// Older files carry naive local ISO timestamps without a zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp.
// Returns time.Time{} (zero value) if parsing fails.
func ParseTimestamp(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t
		}
	}
	return time.Time{}
}
