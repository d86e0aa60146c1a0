// Package config defines the tracker's configuration and how it is loaded.
//
// A Config is built once per process and passed into each component; nothing
// in the tracker reads configuration from package-level state.
package config

import (
	"fmt"
	"sort"
)

// EventSource describes one tracked event on the registration site
type EventSource struct {
	Name string `koanf:"name" json:"name"`
	URL  string `koanf:"url" json:"url"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DataDir holds snapshots, change logs and history CSVs.
	DataDir string `koanf:"data_dir"`

	// ArchivePath is a combined archive JSON file or a directory of
	// results_<year>_<distance>.json files.
	ArchivePath string `koanf:"archive_path"`

	// Capacity is the field limit used for capacity projection.
	Capacity int `koanf:"capacity"`

	// RecentDays bounds the "recent activity" section of the analysis summary.
	RecentDays int `koanf:"recent_days"`

	// FirstYear and LastYear bound the historical archive.
	FirstYear int `koanf:"first_year"`
	LastYear  int `koanf:"last_year"`

	// RecencyWindow is the number of trailing archive years, ending at LastYear,
	// that earn a recency bonus and feed recent averages.
	RecencyWindow int `koanf:"recency_window"`

	// QualifyingDistance defines veteran status; SecondaryDistance is tracked
	// but does not qualify on its own.
	QualifyingDistance string `koanf:"qualifying_distance"`
	SecondaryDistance  string `koanf:"secondary_distance"`

	// UserAgent is sent with every scrape request.
	UserAgent string `koanf:"user_agent"`

	// Notifier selects change notification: none, dryrun, twitter.
	Notifier string `koanf:"notifier"`

	// Events maps event keys to their display name and entrant list URL.
	Events map[string]EventSource `koanf:"events"`
}

// DefaultEvents returns the recognized event keys
func DefaultEvents() map[string]EventSource {
	return map[string]EventSource{
		"frozen_head_50k": {
			Name: "Frozen Head 50K",
			URL:  "https://ultrasignup.com/entrants_event.aspx?did=131025",
		},
		"other_race_50m": {
			Name: "Other Race 50 Miler",
			URL:  "https://ultrasignup.com/entrants_event.aspx?did=127637",
		},
		"other_race_55k": {
			Name: "Other Race 55K",
			URL:  "https://ultrasignup.com/entrants_event.aspx?did=127638",
		},
	}
}

// New creates a Config with defaults
func New() *Config {
	return &Config{
		LogLevel:           "info",
		DataDir:            "~/.local/share/ultra-entrants",
		ArchivePath:        "~/.local/share/ultra-entrants/historical/archive_complete.json",
		Capacity:           500,
		RecentDays:         7,
		FirstYear:          2015,
		LastYear:           2025,
		RecencyWindow:      4,
		QualifyingDistance: "50K",
		SecondaryDistance:  "Marathon",
		UserAgent:          "ultra-entrants/1.0 (github.com/pfrederiksen/ultra-entrants)",
		Notifier:           "none",
		Events:             DefaultEvents(),
	}
}

// Validate checks the configuration for values the pipeline cannot work with
func (c *Config) Validate() error {
	switch {
	case c.DataDir == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case c.Capacity < 0:
		return fmt.Errorf("%w: capacity must not be negative", ErrInvalidConfig)
	case c.RecencyWindow < 1:
		return fmt.Errorf("%w: recency_window must be at least 1", ErrInvalidConfig)
	case c.LastYear < c.FirstYear:
		return fmt.Errorf("%w: last_year %d is before first_year %d", ErrInvalidConfig, c.LastYear, c.FirstYear)
	case c.QualifyingDistance == "":
		return fmt.Errorf("%w: qualifying_distance must not be empty", ErrInvalidConfig)
	case c.QualifyingDistance == c.SecondaryDistance:
		return fmt.Errorf("%w: qualifying and secondary distance are both %q", ErrInvalidConfig, c.QualifyingDistance)
	case len(c.Events) == 0:
		return fmt.Errorf("%w: no events configured", ErrInvalidConfig)
	}

	switch c.Notifier {
	case "none", "dryrun", "twitter":
	default:
		return fmt.Errorf("%w: unknown notifier %q", ErrInvalidConfig, c.Notifier)
	}

	for key, src := range c.Events {
		if src.URL == "" {
			return fmt.Errorf("%w: event %s has no url", ErrInvalidConfig, key)
		}
	}
	return nil
}

// Event looks up an event by key
func (c *Config) Event(key string) (EventSource, error) {
	src, ok := c.Events[key]
	if !ok {
		return EventSource{}, fmt.Errorf("%w: %s", ErrUnknownEvent, key)
	}
	if src.Name == "" {
		src.Name = key
	}
	return src, nil
}

// EventKeys returns the configured event keys in sorted order
func (c *Config) EventKeys() []string {
	keys := make([]string, 0, len(c.Events))
	for k := range c.Events {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WindowStart returns the first year of the recency window
func (c *Config) WindowStart() int {
	return c.LastYear - c.RecencyWindow + 1
}
