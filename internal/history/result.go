package history

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Status is a runner's outcome in one race
type Status string

const (
	StatusFinished     Status = "Finished"
	StatusDNF          Status = "DNF"
	StatusDNS          Status = "DNS"
	StatusDisqualified Status = "DQ"
	StatusUnknown      Status = "Unknown"
)

// ParseStatus maps the strings seen in results grids and archives to a Status
func ParseStatus(s string) Status {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FINISHED", "FINISH", "F":
		return StatusFinished
	case "DNF":
		return StatusDNF
	case "DNS":
		return StatusDNS
	case "DQ", "DSQ", "DISQUALIFIED":
		return StatusDisqualified
	default:
		return StatusUnknown
	}
}

// UnmarshalJSON accepts any casing or alias of a status
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing status: %w", err)
	}
	*s = ParseStatus(raw)
	return nil
}

// Result is one finisher/DNF/DNS/DQ record for one person, one year, one distance
type Result struct {
	Year                int    `json:"year"`
	Distance            string `json:"distance"`
	Place               int    `json:"place,omitempty"`
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	City                string `json:"city"`
	State               string `json:"state"`
	Age                 *int   `json:"age"`
	Division            string `json:"division"`
	Status              Status `json:"status"`
	FinishTimeSeconds   *int   `json:"finish_time_seconds"`
	FinishTimeFormatted string `json:"finish_time_formatted,omitempty"`
}

// Finished reports whether the result is a finish
func (r *Result) Finished() bool {
	return r.Status == StatusFinished
}

// Starter reports whether the runner toed the line (finish, DNF or DQ)
func (r *Result) Starter() bool {
	return r.Status == StatusFinished || r.Status == StatusDNF || r.Status == StatusDisqualified
}

// Valid reports whether the row carries the fields needed to use it
func (r *Result) Valid() bool {
	return r != nil && r.Year > 0 && strings.TrimSpace(r.FirstName) != "" && strings.TrimSpace(r.LastName) != ""
}

// ParseFinishTime converts "H:MM:SS" (or "MM:SS") to seconds.
// Returns nil if the text is not a time.
func ParseFinishTime(text string) *int {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return nil
	}

	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil
		}
		total = total*60 + n
	}
	return &total
}

// FormatSeconds formats a duration in seconds as "H:MM:SS"
func FormatSeconds(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// IntPtr returns a pointer to n
func IntPtr(n int) *int {
	return &n
}
