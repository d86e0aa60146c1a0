package config

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, true},
		{"negative capacity", func(c *Config) { c.Capacity = -1 }, true},
		{"years reversed", func(c *Config) { c.FirstYear, c.LastYear = 2025, 2015 }, true},
		{"same distances", func(c *Config) { c.SecondaryDistance = "50K" }, true},
		{"no events", func(c *Config) { c.Events = nil }, true},
		{"event without url", func(c *Config) { c.Events["x"] = EventSource{Name: "X"} }, true},
		{"unknown notifier", func(c *Config) { c.Notifier = "pigeon" }, true},
		{"twitter notifier", func(c *Config) { c.Notifier = "twitter" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestEvent(t *testing.T) {
	cfg := New()

	src, err := cfg.Event("frozen_head_50k")
	if err != nil {
		t.Fatalf("Event failed: %v", err)
	}
	if src.Name != "Frozen Head 50K" {
		t.Errorf("expected Frozen Head 50K, got %q", src.Name)
	}

	if _, err := cfg.Event("nope"); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestWindowStart(t *testing.T) {
	tests := []struct {
		name     string
		lastYear int
		window   int
		want     int
	}{
		{name: "default", lastYear: 2025, window: 4, want: 2022},
		{name: "single year", lastYear: 2025, window: 1, want: 2025},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			cfg.LastYear, cfg.RecencyWindow = tt.lastYear, tt.window
			if got := cfg.WindowStart(); got != tt.want {
				t.Errorf("WindowStart() = %d, want %d", got, tt.want)
			}
		})
	}
}
