package entrant

// ChangeRecord is the result of comparing two consecutive snapshots of one event
type ChangeRecord struct {
	Timestamp       string     `json:"timestamp"`
	CountChange     int        `json:"count_change"`
	NewCount        int        `json:"new_count"`
	PreviousCount   int        `json:"previous_count"`
	NewEntrants     []*Entrant `json:"new_entrants"`
	DroppedEntrants []*Entrant `json:"dropped_entrants"`
	TotalNew        int        `json:"total_new"`
	TotalDropped    int        `json:"total_dropped"`

	// KeySetDiscrepancy is CountChange - (TotalNew - TotalDropped). Counts come
	// from the upstream count, totals from the key sets, so they can disagree.
	KeySetDiscrepancy int `json:"key_set_discrepancy,omitempty"`
}

// HasChanges reports whether anyone joined or dropped
func (c *ChangeRecord) HasChanges() bool {
	return c != nil && (c.TotalNew > 0 || c.TotalDropped > 0)
}

// Diff compares the current snapshot against the previous one.
//
// A nil or zero-count previous snapshot is the first run for the event: the
// result is a baseline record with no joins or drops rather than the whole
// roster reported as new. Both entrant lists are sorted by key, so diffing the
// same inputs twice gives the same record.
func Diff(previous, current *Snapshot) *ChangeRecord {
	if current == nil {
		current = NewSnapshot()
	}

	record := &ChangeRecord{
		Timestamp:       current.Timestamp,
		NewCount:        current.Count,
		NewEntrants:     make([]*Entrant, 0),
		DroppedEntrants: make([]*Entrant, 0),
	}

	if previous == nil || previous.Count == 0 {
		return record
	}

	record.PreviousCount = previous.Count
	record.CountChange = current.Count - previous.Count

	for _, key := range current.Keys() {
		if _, exists := previous.Entrants[key]; !exists {
			record.NewEntrants = append(record.NewEntrants, withKey(current.Entrants[key], key))
		}
	}

	for _, key := range previous.Keys() {
		if _, exists := current.Entrants[key]; !exists {
			record.DroppedEntrants = append(record.DroppedEntrants, withKey(previous.Entrants[key], key))
		}
	}

	record.TotalNew = len(record.NewEntrants)
	record.TotalDropped = len(record.DroppedEntrants)
	record.KeySetDiscrepancy = record.CountChange - (record.TotalNew - record.TotalDropped)

	return record
}

// withKey copies an entrant and stamps the map key on it
func withKey(e *Entrant, key string) *Entrant {
	out := &Entrant{Key: key}
	if e != nil {
		*out = *e
		out.Key = key
	}
	return out
}
