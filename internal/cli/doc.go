// Package cli implements the command-line interface for ultra-entrants.
//
// The cli package provides the Cobra-based CLI: tracking one or every
// configured event, checking the latest change, ranking returning veterans,
// and reporting on the change log and the historical archive. It coordinates
// the scraper, storage, veteran and analysis packages and maps outcomes to
// exit codes for schedulers.
package cli
