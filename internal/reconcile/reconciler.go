package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"enrichd/internal/aristote"
	"enrichd/internal/ledger"
	"enrichd/internal/logging"
	"enrichd/internal/mediaserver"
)

// Marker prefixes the title of every subtitle track this system publishes,
// making prior tracks identifiable for safe replacement.
const Marker = "aristote_generated"

// EnrichmentAPI is the subset of the enrichment client the reconciler needs.
type EnrichmentAPI interface {
	GetEnrichment(ctx context.Context, enrichmentID string) (*aristote.Enrichment, error)
	GetVersion(ctx context.Context, enrichmentID, versionID string) (*aristote.Version, error)
	LatestVersionID(ctx context.Context, enrichmentID string) (string, error)
	DownloadTranscript(ctx context.Context, enrichmentID, versionID, language string) (string, error)
	RequestNewVersion(ctx context.Context, enrichmentID string, params aristote.NewVersionParams) error
}

// SubtitleAPI is the subset of the platform client used to publish tracks.
type SubtitleAPI interface {
	Subtitles(ctx context.Context, oid string) ([]mediaserver.Subtitle, error)
	AddSubtitle(ctx context.Context, params mediaserver.AddSubtitleParams) error
	DeleteSubtitle(ctx context.Context, id int64) error
}

// Option customises Reconciler construction.
type Option func(*Reconciler)

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = now
	}
}

// Reconciler drives status transitions for tracked enrichment requests.
type Reconciler struct {
	store       *ledger.Store
	enrichments EnrichmentAPI
	subtitles   SubtitleAPI
	stuckAfter  time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// New builds a Reconciler. stuckAfter is how long a job may sit in
// UPLOADING_MEDIA before it counts as stuck.
func New(store *ledger.Store, enrichments EnrichmentAPI, subtitles SubtitleAPI, stuckAfter time.Duration, logger *slog.Logger, opts ...Option) *Reconciler {
	reconciler := &Reconciler{
		store:       store,
		enrichments: enrichments,
		subtitles:   subtitles,
		stuckAfter:  stuckAfter,
		logger:      logging.WithComponent(logger, "reconcile"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(reconciler)
	}
	return reconciler
}

// Notification is the webhook payload delivered by the enrichment service.
type Notification struct {
	EnrichmentID     string `json:"id"`
	Status           string `json:"status"`
	InitialVersionID string `json:"initialVersionId"`
}

// HandleNotification applies a pushed job status to the ledger. Notifications
// for unknown jobs are logged and dropped; replays of a notification converge
// on the same row state and published subtitle set.
func (r *Reconciler) HandleNotification(ctx context.Context, notification Notification) error {
	row, err := r.store.FindByEnrichmentID(ctx, notification.EnrichmentID)
	if errors.Is(err, ledger.ErrNotFound) {
		r.logger.Warn("notification for untracked job dropped",
			"enrichment_id", notification.EnrichmentID,
			"status", notification.Status)
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.store.SetNotificationReceivedAt(ctx, row.OID, r.now()); err != nil {
		return err
	}

	switch notification.Status {
	case aristote.JobStatusSuccess:
		return r.applySuccess(ctx, row, notification.InitialVersionID)
	case aristote.JobStatusFailure:
		r.logger.Warn("enrichment failed", "oid", row.OID, "enrichment_id", row.EnrichmentID)
		return r.store.SetStatus(ctx, row.OID, ledger.StatusFailure)
	default:
		r.logger.Debug("intermediate status ignored",
			"oid", row.OID,
			"status", notification.Status)
		return nil
	}
}

// applySuccess resolves the relevant version and applies the success branch
// of the transition table. An empty versionID means "use the latest".
func (r *Reconciler) applySuccess(ctx context.Context, row *ledger.Request, versionID string) error {
	if versionID == "" {
		latest, err := r.enrichments.LatestVersionID(ctx, row.EnrichmentID)
		if err != nil {
			return err
		}
		versionID = latest
	}

	version, err := r.enrichments.GetVersion(ctx, row.EnrichmentID, versionID)
	if err != nil {
		return err
	}

	if version.TranslateTo != "" {
		if err := r.store.SetStatus(ctx, row.OID, ledger.StatusSuccess); err != nil {
			return err
		}
		return r.Publish(ctx, row.OID, row.EnrichmentID, version)
	}

	transcriptLanguage := strings.TrimSpace(version.Language())
	if transcriptLanguage == "" {
		r.logger.Warn("transcription finished without a detected language", "oid", row.OID)
		return r.store.SetStatus(ctx, row.OID, ledger.StatusTranscribedNoLanguage)
	}

	if row.Status == ledger.StatusTranscribed {
		// Follow-up translation already requested for this row.
		return nil
	}

	if err := r.enrichments.RequestNewVersion(ctx, row.EnrichmentID, aristote.NewVersionParams{
		Language: transcriptLanguage,
	}); err != nil {
		return err
	}
	if err := r.store.SetLanguage(ctx, row.OID, transcriptLanguage); err != nil {
		return err
	}
	return r.store.SetStatus(ctx, row.OID, ledger.StatusTranscribed)
}

// Publish pushes the subtitle tracks of a finished version to the platform.
// Prior marker-titled tracks are deleted first so the operation can be
// replayed safely. Each platform failure surfaces without rolling back
// already-applied deletions or uploads.
func (r *Reconciler) Publish(ctx context.Context, oid, enrichmentID string, version *aristote.Version) error {
	primaryLanguage := strings.TrimSpace(version.Language())
	if primaryLanguage == "" {
		return fmt.Errorf("version %s has no transcript language", version.ID)
	}

	primary, err := r.enrichments.DownloadTranscript(ctx, enrichmentID, version.ID, "")
	if err != nil {
		return err
	}

	existing, err := r.subtitles.Subtitles(ctx, oid)
	if err != nil {
		return err
	}
	for _, track := range existing {
		if !strings.HasPrefix(track.Title, Marker) {
			continue
		}
		if err := r.subtitles.DeleteSubtitle(ctx, track.ID); err != nil {
			return err
		}
	}

	if err := r.addTrack(ctx, oid, primaryLanguage, primary); err != nil {
		return err
	}

	if version.TranslateTo != "" {
		translated, err := r.enrichments.DownloadTranscript(ctx, enrichmentID, version.ID, version.TranslateTo)
		if err != nil {
			return err
		}
		if err := r.addTrack(ctx, oid, version.TranslateTo, translated); err != nil {
			return err
		}
	}

	r.logger.Info("subtitles published", "oid", oid, "enrichment_id", enrichmentID,
		"language", primaryLanguage, "translate_to", version.TranslateTo)
	return nil
}

func (r *Reconciler) addTrack(ctx context.Context, oid, lang, content string) error {
	return r.subtitles.AddSubtitle(ctx, mediaserver.AddSubtitleParams{
		OID:      oid,
		Lang:     lang,
		Title:    fmt.Sprintf("%s_%s", Marker, lang),
		FileName: fmt.Sprintf("%s_%s_%s.srt", Marker, oid, lang),
		Content:  []byte(content),
	})
}

// Stuck reports whether a remote job warrants forced resubmission: either it
// failed outright, or media upload has been running longer than the
// configured threshold.
func (r *Reconciler) Stuck(job *aristote.Enrichment, now time.Time) bool {
	switch job.Status {
	case aristote.JobStatusFailure:
		return true
	case aristote.JobStatusUploadingMedia:
		started, ok := job.UploadStarted()
		return ok && now.Sub(started) > r.stuckAfter
	default:
		return false
	}
}

// PollOutcome classifies what a polling pass found for one tracked row.
type PollOutcome int

const (
	// OutcomeUnchanged means the job is still progressing normally.
	OutcomeUnchanged PollOutcome = iota
	// OutcomeRecovered means the job had finished remotely and the success
	// path was re-run locally (missed-webhook recovery).
	OutcomeRecovered
	// OutcomeStuck means the job is failed or stalled and the row is
	// eligible for forced resubmission.
	OutcomeStuck
)

// Poll inspects the remote job backing a tracked row and reconciles state
// that webhooks failed to deliver.
func (r *Reconciler) Poll(ctx context.Context, row *ledger.Request) (PollOutcome, error) {
	job, err := r.enrichments.GetEnrichment(ctx, row.EnrichmentID)
	if err != nil {
		return OutcomeUnchanged, err
	}

	if job.Status == aristote.JobStatusSuccess {
		if err := r.applySuccess(ctx, row, ""); err != nil {
			return OutcomeRecovered, err
		}
		return OutcomeRecovered, nil
	}

	if r.Stuck(job, r.now()) {
		r.logger.Warn("job stuck",
			"oid", row.OID,
			"enrichment_id", row.EnrichmentID,
			"remote_status", job.Status,
			"failure_cause", job.FailureCause)
		return OutcomeStuck, nil
	}
	return OutcomeUnchanged, nil
}
