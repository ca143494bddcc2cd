package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gofrs/flock"

	"enrichd/internal/aristote"
	"enrichd/internal/config"
	"enrichd/internal/ledger"
	"enrichd/internal/logging"
	"enrichd/internal/mediaserver"
	"enrichd/internal/reconcile"
)

// Mode selects how discovered videos already present in the ledger are
// treated.
type Mode string

const (
	// ModeDefault submits only videos not yet tracked.
	ModeDefault Mode = ""
	// ModeAll force-resubmits every eligible video.
	ModeAll Mode = "all"
	// ModeStuck polls non-terminal rows and resubmits stalled jobs.
	ModeStuck Mode = "stuck"
	// ModeQuiz requests quiz generation for finished jobs lacking one.
	ModeQuiz Mode = "quiz"
)

// ParseMode validates an update-mode flag value.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeDefault:
		return ModeDefault, nil
	case ModeAll:
		return ModeAll, nil
	case ModeStuck:
		return ModeStuck, nil
	case ModeQuiz:
		return ModeQuiz, nil
	default:
		return ModeDefault, fmt.Errorf("update mode: unsupported value %q", value)
	}
}

// Result accumulates the outcome of one driver run.
type Result struct {
	Submitted     int
	Skipped       int
	Stuck         int
	Recovered     int
	QuizRequested int
	Failed        int
}

// Summary renders a one-line human summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf("submitted=%d skipped=%d stuck=%d recovered=%d quiz=%d failed=%d",
		r.Submitted, r.Skipped, r.Stuck, r.Recovered, r.QuizRequested, r.Failed)
}

// Catalog lists one catalog level at a time so large channel trees never
// need to be buffered whole.
type Catalog interface {
	ChannelContent(ctx context.Context, parentOID string) (*mediaserver.ChannelContent, error)
}

// EnrichmentService is the subset of the enrichment client the driver needs.
type EnrichmentService interface {
	Submit(ctx context.Context, params aristote.SubmitParams) (string, error)
	LatestVersionID(ctx context.Context, enrichmentID string) (string, error)
	GetVersion(ctx context.Context, enrichmentID, versionID string) (*aristote.Version, error)
	RequestNewVersion(ctx context.Context, enrichmentID string, params aristote.NewVersionParams) error
}

// Poller reconciles one tracked row against its remote job.
type Poller interface {
	Poll(ctx context.Context, row *ledger.Request) (reconcile.PollOutcome, error)
}

// Driver walks the catalog and issues enrichment submissions.
type Driver struct {
	cfg         *config.Config
	store       *ledger.Store
	enrichments EnrichmentService
	catalog     Catalog
	poller      Poller
	logger      *slog.Logger
}

// New builds a Driver.
func New(cfg *config.Config, store *ledger.Store, enrichments EnrichmentService, catalog Catalog, poller Poller, logger *slog.Logger) *Driver {
	return &Driver{
		cfg:         cfg,
		store:       store,
		enrichments: enrichments,
		catalog:     catalog,
		poller:      poller,
		logger:      logging.WithComponent(logger, "workflow"),
	}
}

// Options selects the scope of one driver run.
type Options struct {
	// Channels are the root channel oids to walk in order; empty walks the
	// platform root.
	Channels []string
	// Mode is the update mode for already-tracked videos.
	Mode Mode
	// Limit caps the number of submissions issued across all channels; zero
	// means unlimited.
	Limit int
}

// errLimitReached aborts the catalog walk once the submission cap is hit.
var errLimitReached = errors.New("request limit reached")

// Run executes one import pass. An exclusive file lock serializes runs so
// delete-then-create resubmission sequences cannot interleave.
func (d *Driver) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := d.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(d.cfg.Paths.DataDir, "import.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire import lock: %w", err)
	}
	if !locked {
		return nil, errors.New("another import run is already in progress")
	}
	defer func() { _ = lock.Unlock() }()

	languages, err := LoadChannelLanguages(d.cfg.Paths.ChannelsCSV)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		d.logger.Warn("channels csv missing, defaulting to auto-detect", "path", d.cfg.Paths.ChannelsCSV)
		languages = Languages{}
	}

	roots := opts.Channels
	if len(roots) == 0 {
		roots = []string{""}
	}

	result := &Result{}
	visit := func(video mediaserver.Video, channelOID, channelLanguage string) error {
		return d.handleVideo(ctx, opts, result, video, channelOID, channelLanguage)
	}
	for _, root := range roots {
		rootLanguage, _ := languages.Lookup(root)
		if err := d.walk(ctx, root, rootLanguage, languages, visit); err != nil {
			if errors.Is(err, errLimitReached) {
				break
			}
			return result, err
		}
	}

	d.logger.Info("import run finished", "mode", string(opts.Mode), "summary", result.Summary())
	return result, nil
}

// walk visits every video under a channel depth-first, one catalog request
// per level, carrying the nearest configured channel language down the tree.
func (d *Driver) walk(ctx context.Context, channelOID, channelLanguage string, languages Languages, visit func(video mediaserver.Video, channelOID, channelLanguage string) error) error {
	content, err := d.catalog.ChannelContent(ctx, channelOID)
	if err != nil {
		return err
	}

	for _, video := range content.Videos {
		if err := visit(video, channelOID, channelLanguage); err != nil {
			return err
		}
	}

	for _, channel := range content.Channels {
		childLanguage := channelLanguage
		if override, ok := languages.Lookup(channel.OID, channel.Title); ok {
			childLanguage = override
		}
		if err := d.walk(ctx, channel.OID, childLanguage, languages, visit); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) handleVideo(ctx context.Context, opts Options, result *Result, video mediaserver.Video, channelOID, channelLanguage string) error {
	switch opts.Mode {
	case ModeAll:
		return d.handleForceUpdate(ctx, opts, result, video, channelOID, channelLanguage)
	case ModeStuck:
		return d.handleStuck(ctx, opts, result, video, channelOID, channelLanguage)
	case ModeQuiz:
		return d.handleQuiz(ctx, result, video)
	default:
		exists, err := d.store.Exists(ctx, video.OID)
		if err != nil {
			return err
		}
		if exists {
			result.Skipped++
			return nil
		}
		return d.submit(ctx, opts, result, video, channelOID, channelLanguage)
	}
}

func (d *Driver) handleForceUpdate(ctx context.Context, opts Options, result *Result, video mediaserver.Video, channelOID, channelLanguage string) error {
	row, err := d.store.Get(ctx, video.OID)
	if err != nil && !errors.Is(err, ledger.ErrNotFound) {
		return err
	}
	if row != nil {
		if row.Status.IsForceUpdateExcluded() {
			result.Skipped++
			return nil
		}
		if err := d.store.Delete(ctx, video.OID); err != nil {
			return err
		}
	}
	return d.submit(ctx, opts, result, video, channelOID, channelLanguage)
}

func (d *Driver) handleStuck(ctx context.Context, opts Options, result *Result, video mediaserver.Video, channelOID, channelLanguage string) error {
	row, err := d.store.Get(ctx, video.OID)
	if errors.Is(err, ledger.ErrNotFound) {
		result.Skipped++
		return nil
	}
	if err != nil {
		return err
	}
	if !slices.Contains(ledger.NonTerminalStatuses(), row.Status) {
		result.Skipped++
		return nil
	}

	outcome, err := d.poller.Poll(ctx, row)
	if err != nil {
		result.Failed++
		d.logger.Error("poll failed", "oid", row.OID, "error", err)
		return nil
	}

	switch outcome {
	case reconcile.OutcomeRecovered:
		result.Recovered++
		return nil
	case reconcile.OutcomeStuck:
		result.Stuck++
		if opts.Limit > 0 && result.Submitted >= opts.Limit {
			d.logger.Warn("submission limit reached, stuck job left for next run", "oid", row.OID)
			return nil
		}
		if err := d.store.Delete(ctx, video.OID); err != nil {
			return err
		}
		return d.submit(ctx, opts, result, video, channelOID, channelLanguage)
	default:
		result.Skipped++
		return nil
	}
}

func (d *Driver) handleQuiz(ctx context.Context, result *Result, video mediaserver.Video) error {
	row, err := d.store.Get(ctx, video.OID)
	if errors.Is(err, ledger.ErrNotFound) {
		result.Skipped++
		return nil
	}
	if err != nil {
		return err
	}
	if row.Status != ledger.StatusSuccess {
		result.Skipped++
		return nil
	}

	versionID, err := d.enrichments.LatestVersionID(ctx, row.EnrichmentID)
	if err != nil {
		result.Failed++
		d.logger.Error("latest version lookup failed", "oid", row.OID, "error", err)
		return nil
	}
	version, err := d.enrichments.GetVersion(ctx, row.EnrichmentID, versionID)
	if err != nil {
		result.Failed++
		d.logger.Error("version fetch failed", "oid", row.OID, "error", err)
		return nil
	}
	if version.HasQuiz() {
		result.Skipped++
		return nil
	}

	if err := d.enrichments.RequestNewVersion(ctx, row.EnrichmentID, aristote.NewVersionParams{
		Language:     row.Language,
		GenerateQuiz: true,
	}); err != nil {
		result.Failed++
		d.logger.Error("quiz request failed", "oid", row.OID, "error", err)
		return nil
	}
	result.QuizRequested++
	return nil
}

// submit issues one enrichment submission and records the new row. Remote
// failures skip the video without aborting the run.
func (d *Driver) submit(ctx context.Context, opts Options, result *Result, video mediaserver.Video, channelOID, channelLanguage string) error {
	if opts.Limit > 0 && result.Submitted >= opts.Limit {
		return errLimitReached
	}

	base := strings.TrimRight(d.cfg.Server.PublicBaseURL, "/")
	enrichmentID, err := d.enrichments.Submit(ctx, aristote.SubmitParams{
		SourceURL:  base + "/export/" + video.OID,
		WebhookURL: base + "/webhook",
		Language:   channelLanguage,
	})
	if err != nil {
		result.Failed++
		d.logger.Error("submission failed", "oid", video.OID, "error", err)
		return nil
	}

	if _, err := d.store.Create(ctx, ledger.CreateParams{
		OID:          video.OID,
		EnrichmentID: enrichmentID,
		Language:     channelLanguage,
		Name:         video.Title,
		ParentOID:    channelOID,
	}); err != nil {
		return err
	}

	result.Submitted++
	d.logger.Info("video submitted", "oid", video.OID, "enrichment_id", enrichmentID, "language", channelLanguage)
	return nil
}
