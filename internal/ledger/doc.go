// Package ledger persists one enrichment request row per tracked video in
// SQLite and exposes the single-row operations the lifecycle depends on.
//
// The Store owns the database: every other component reads rows or requests
// mutations through it, never through raw SQL. A row is keyed by the video
// oid; Create refuses to overwrite an existing row so a resubmission is
// always an explicit delete-then-create, keeping enrichment id lookups
// unambiguous for the lifetime of a row.
//
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema.
package ledger
