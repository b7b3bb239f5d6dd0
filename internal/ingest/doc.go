// Package ingest reads relay records and path candidates from exported
// directory snapshots.
//
// A candidate file is a YAML (or JSON) document with two lists: relays,
// keyed by fingerprint, and candidates, which name their entry, middle and
// exit relays by fingerprint. Every value is normalized through package tor
// at this boundary, so the scorer only ever sees canonical relay attributes.
//
// Candidates referring to the same relay share a single *model.RelayAttributes.
// A candidate whose reference cannot be resolved keeps a nil relay at that
// position; it is rejected as malformed when scored rather than aborting the
// whole file.
package ingest
