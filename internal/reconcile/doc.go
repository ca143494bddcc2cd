// Package reconcile implements the enrichment lifecycle state machine. It
// applies job outcomes reported by webhook or polling to the request ledger,
// requests follow-up translation passes, detects stuck jobs, and publishes
// finished subtitle tracks back to the media platform.
package reconcile
