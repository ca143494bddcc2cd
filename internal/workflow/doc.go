// Package workflow implements the bulk import driver: it walks the platform
// catalog, decides per video whether to submit or resubmit an enrichment
// based on ledger state and an update mode, and reports a run-scoped result.
package workflow
