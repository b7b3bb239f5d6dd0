// Package tor normalizes relay identifiers and directory attributes.
//
// Relay records arrive from exported directory snapshots in many shapes:
// fingerprints with a leading "$" or grouped in blocks of four, lowercase
// country codes, bare AS numbers, and flag lines in any case. This package
// turns them into the single canonical form the scorer compares, so that two
// values equal in meaning are equal as strings.
//
// Nothing here talks to the network; the package works on exported data only.
package tor
