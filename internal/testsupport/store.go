package testsupport

import (
	"context"
	"testing"

	"enrichd/internal/config"
	"enrichd/internal/ledger"
)

// MustOpenLedger opens a ledger.Store for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRequest creates a tracked request for tests using the provided store.
func NewRequest(t testing.TB, store *ledger.Store, oid, enrichmentID, language string) *ledger.Request {
	t.Helper()

	request, err := store.Create(context.Background(), ledger.CreateParams{
		OID:          oid,
		EnrichmentID: enrichmentID,
		Language:     language,
	})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return request
}
