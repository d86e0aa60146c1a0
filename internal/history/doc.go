// Package history provides the historical results archive: one entry per
// year and distance, each holding finisher, DNF, DNS and DQ rows.
package history
