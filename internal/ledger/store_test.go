package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"enrichd/internal/ledger"
	"enrichd/internal/testsupport"
)

func TestCreateAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	ctx := context.Background()
	request, err := store.Create(ctx, ledger.CreateParams{
		OID:          "v000000000000001",
		EnrichmentID: "enr-1",
		Language:     "en",
		Name:         "Lecture 1",
		ParentOID:    "c000000000000001",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if request.Status != ledger.StatusPending {
		t.Fatalf("expected PENDING, got %s", request.Status)
	}
	if request.RequestSentAt.IsZero() {
		t.Fatal("expected request_sent_at to be set")
	}
	if request.NotificationReceivedAt != nil {
		t.Fatal("expected no notification timestamp on a fresh row")
	}

	fetched, err := store.Get(ctx, "v000000000000001")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched.EnrichmentID != "enr-1" || fetched.Language != "en" || fetched.Name != "Lecture 1" {
		t.Fatalf("unexpected row: %#v", fetched)
	}
}

func TestCreateDuplicateFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	ctx := context.Background()
	testsupport.NewRequest(t, store, "v1", "enr-1", "")

	_, err := store.Create(ctx, ledger.CreateParams{OID: "v1", EnrichmentID: "enr-2"})
	if !errors.Is(err, ledger.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// The original row must be untouched.
	row, err := store.Get(ctx, "v1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if row.EnrichmentID != "enr-1" {
		t.Fatalf("enrichment id was overwritten: %s", row.EnrichmentID)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	ctx := context.Background()
	testsupport.NewRequest(t, store, "v1", "enr-1", "")

	if err := store.Delete(ctx, "v1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "v1"); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}

	exists, err := store.Exists(ctx, "v1")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Fatal("expected row gone after delete")
	}
}

func TestDeleteThenCreateReplacesRow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	ctx := context.Background()
	testsupport.NewRequest(t, store, "v1", "enr-old", "fr")
	if err := store.SetStatus(ctx, "v1", ledger.StatusFailure); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	if err := store.Delete(ctx, "v1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	replacement, err := store.Create(ctx, ledger.CreateParams{OID: "v1", EnrichmentID: "enr-new"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if replacement.Status != ledger.StatusPending || replacement.EnrichmentID != "enr-new" {
		t.Fatalf("unexpected replacement row: %#v", replacement)
	}

	// Lookups by the old job id must no longer resolve.
	if _, err := store.FindByEnrichmentID(ctx, "enr-old"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for stale enrichment id, got %v", err)
	}
}

func TestFindByEnrichmentID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	ctx := context.Background()
	testsupport.NewRequest(t, store, "v1", "enr-1", "")

	found, err := store.FindByEnrichmentID(ctx, "enr-1")
	if err != nil {
		t.Fatalf("FindByEnrichmentID failed: %v", err)
	}
	if found.OID != "v1" {
		t.Fatalf("expected oid v1, got %s", found.OID)
	}

	if _, err := store.FindByEnrichmentID(ctx, "enr-unknown"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetStatusUnknownOID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	err := store.SetStatus(context.Background(), "missing", ledger.StatusFailure)
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNotificationTimestampOnlySetOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	ctx := context.Background()
	testsupport.NewRequest(t, store, "v1", "enr-1", "")

	first := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	if err := store.SetNotificationReceivedAt(ctx, "v1", first); err != nil {
		t.Fatalf("SetNotificationReceivedAt failed: %v", err)
	}
	if err := store.SetNotificationReceivedAt(ctx, "v1", first.Add(time.Hour)); err != nil {
		t.Fatalf("second SetNotificationReceivedAt failed: %v", err)
	}

	row, err := store.Get(ctx, "v1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if row.NotificationReceivedAt == nil || !row.NotificationReceivedAt.Equal(first) {
		t.Fatalf("expected first timestamp preserved, got %v", row.NotificationReceivedAt)
	}
}

func TestListByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	ctx := context.Background()
	testsupport.NewRequest(t, store, "v1", "enr-1", "")
	testsupport.NewRequest(t, store, "v2", "enr-2", "")
	testsupport.NewRequest(t, store, "v3", "enr-3", "")
	if err := store.SetStatus(ctx, "v2", ledger.StatusTranscribed); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if err := store.SetStatus(ctx, "v3", ledger.StatusSuccess); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	pending, err := store.ListByStatus(ctx, ledger.StatusPending, ledger.StatusTranscribed)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(pending))
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[ledger.StatusSuccess] != 1 || stats[ledger.StatusPending] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := ledger.ParseStatus(" pending "); !ok || status != ledger.StatusPending {
		t.Fatalf("expected PENDING, got %s ok=%v", status, ok)
	}
	if _, ok := ledger.ParseStatus("UNKNOWN"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestForceUpdateExclusions(t *testing.T) {
	if !ledger.StatusTranscribedNoLanguage.IsForceUpdateExcluded() {
		t.Fatal("TRANSCRIBED_NO_LANGUAGE must be excluded from force updates")
	}
	if !ledger.StatusNotDownloadable.IsForceUpdateExcluded() {
		t.Fatal("NOT_DOWNLOADABLE must be excluded from force updates")
	}
	if ledger.StatusFailure.IsForceUpdateExcluded() {
		t.Fatal("FAILURE must remain eligible for force updates")
	}
}
