// Package scraper fetches entrant lists from the registration site and parses
// entrant tables and saved results grids.
//
// The entrant list is the third table on the event's entrants page; each row
// carries age, first and last name, city and state. Results pages are rendered
// client-side into a jqGrid, so ParseResults works on saved, already-rendered
// HTML rather than fetching it.
package scraper
