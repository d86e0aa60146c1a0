// Package entrant provides types and functions for tracking an event's entrant roster.
//
// The entrant package handles entrant identity, point-in-time roster snapshots, and
// change detection through set-difference diffing. Each entrant is keyed by a
// normalized "first_last_region" string, which is the only identity the
// registration site exposes. Two different people with the same name and region
// collide on that key; this is a known accuracy limit, not something the package
// tries to disambiguate.
package entrant
