package entrant

import (
	"strings"
)

// Entrant represents one person registered for one event
type Entrant struct {
	Key       string `json:"key,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	City      string `json:"city"`
	Region    string `json:"location"` // state/province/country as shown by the site
	Age       string `json:"age"`      // may be blank or non-numeric
}

// Key creates the snapshot identity for an entrant: lowercase "first_last_region".
func Key(first, last, region string) string {
	return strings.ToLower(strings.TrimSpace(first) + "_" + strings.TrimSpace(last) + "_" + strings.TrimSpace(region))
}

// NormalizeName creates the looser historical join key: lowercase "first last".
// It ignores region so that runners who moved still match their old results.
func NormalizeName(first, last string) string {
	return strings.ToLower(strings.TrimSpace(first)) + " " + strings.ToLower(strings.TrimSpace(last))
}

// NewEntrant creates a new Entrant with Key populated
func NewEntrant(first, last, city, region, age string) *Entrant {
	return &Entrant{
		Key:       Key(first, last, region),
		FirstName: strings.TrimSpace(first),
		LastName:  strings.TrimSpace(last),
		City:      strings.TrimSpace(city),
		Region:    strings.TrimSpace(region),
		Age:       strings.TrimSpace(age),
	}
}

// Name returns the display name
func (e *Entrant) Name() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// JoinKey returns the entrant's historical join key
func (e *Entrant) JoinKey() string {
	return NormalizeName(e.FirstName, e.LastName)
}

// Valid reports whether the entrant carries the fields needed to identify it
func (e *Entrant) Valid() bool {
	return e != nil && strings.TrimSpace(e.FirstName) != "" && strings.TrimSpace(e.LastName) != ""
}
