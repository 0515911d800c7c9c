// Package archive provides durable provenance for bridge runs: every import
// (source text to circuit) and export (circuit to text) can be recorded with
// the circuit fingerprint, the input, and the produced artifact.
//
// Storage is SQLite with WAL mode for concurrent read access and a single
// writer connection. Runs are keyed by a UUID token and idempotent on it:
// re-recording a token is silently ignored. All reads carry ORDER BY so
// listings are deterministic.
package archive
