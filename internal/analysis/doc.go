// Package analysis derives read-only reports from an event's change log and
// from the historical results archive.
//
// Change log reports cover admit and dropout totals, the daily admit rate and
// a capacity projection. Archive reports cover finish rates (DNS excluded),
// finish time statistics, demographics, age groups and locations. Nothing in
// this package writes to the log or the archive.
package analysis
