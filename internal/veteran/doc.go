// Package veteran cross-references current entrants against the historical
// results archive and ranks returning runners by a reliability index.
//
// Ranking is a batch pipeline with three separate steps:
//
//  1. CrossReference joins entrants to archive rows by normalized name and keeps
//     runners with at least one qualifying-distance finish.
//  2. Score computes each veteran's metrics on its own.
//  3. AssignPaceTiers buckets the whole cohort by recent average finish time.
//
// The reliability index rewards qualifying finishes, longevity and recent
// activity, and penalizes secondary-distance finishes. Speed is not part of it;
// pace only shows up in the cohort-relative tier.
//
// Names are the only join key the archive offers, so two runners with the same
// first and last name are merged into one veteran.
package veteran
