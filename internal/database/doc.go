// Package database stores analysis history in SQLite.
//
// Every scored analysis can be recorded together with the run that produced
// it, so that the score of one relay path can be followed across runs and
// configuration changes. Full analyses are kept as JSON; the columns needed
// for listing and comparison are stored alongside.
//
// The driver is modernc.org/sqlite, which needs no cgo.
package database
