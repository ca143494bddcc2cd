package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"enrichd/internal/config"
)

// Store manages enrichment request persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "enrichd.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CreateParams carries the fields recorded at submission time.
type CreateParams struct {
	OID          string
	EnrichmentID string
	Language     string
	Name         string
	ParentOID    string
}

// Create inserts a new PENDING row for a video. It fails with ErrDuplicate
// when the oid is already tracked; callers must Delete first to resubmit.
func (s *Store) Create(ctx context.Context, params CreateParams) (*Request, error) {
	if strings.TrimSpace(params.OID) == "" {
		return nil, errors.New("oid is required")
	}
	if strings.TrimSpace(params.EnrichmentID) == "" {
		return nil, errors.New("enrichment id is required")
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO enrichment_requests (
            oid, enrichment_id, request_sent_at, language, status, name, parent_oid
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		params.OID,
		params.EnrichmentID,
		now.Format(time.RFC3339Nano),
		nullableString(params.Language),
		StatusPending,
		nullableString(params.Name),
		nullableString(params.ParentOID),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: oid %s", ErrDuplicate, params.OID)
		}
		return nil, fmt.Errorf("insert request: %w", err)
	}

	return s.Get(ctx, params.OID)
}

// Delete removes a row. Deleting an absent oid is not an error.
func (s *Store) Delete(ctx context.Context, oid string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM enrichment_requests WHERE oid = ?`, oid); err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	return nil
}

// Exists reports whether a row is tracked for the oid.
func (s *Store) Exists(ctx context.Context, oid string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM enrichment_requests WHERE oid = ?`, oid).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check existence: %w", err)
	}
	return true, nil
}

// Get fetches a row by oid.
func (s *Store) Get(ctx context.Context, oid string) (*Request, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM enrichment_requests WHERE oid = ?`, oid)
	request, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: oid %s", ErrNotFound, oid)
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return request, nil
}

// FindByEnrichmentID fetches the row tracking a provider job. The webhook
// path only knows the job id, not the oid.
func (s *Store) FindByEnrichmentID(ctx context.Context, enrichmentID string) (*Request, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+requestColumns+` FROM enrichment_requests WHERE enrichment_id = ? LIMIT 1`,
		enrichmentID,
	)
	request, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: enrichment id %s", ErrNotFound, enrichmentID)
	}
	if err != nil {
		return nil, fmt.Errorf("find by enrichment id: %w", err)
	}
	return request, nil
}

// SetStatus updates the lifecycle status of a row.
func (s *Store) SetStatus(ctx context.Context, oid string, status Status) error {
	res, err := s.db.ExecContext(ctx, `UPDATE enrichment_requests SET status = ? WHERE oid = ?`, status, oid)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return requireRow(res, oid)
}

// SetLanguage records the transcript language learned after transcription.
func (s *Store) SetLanguage(ctx context.Context, oid, language string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE enrichment_requests SET language = ? WHERE oid = ?`, nullableString(language), oid)
	if err != nil {
		return fmt.Errorf("set language: %w", err)
	}
	return requireRow(res, oid)
}

// SetNotificationReceivedAt records the first webhook arrival for a job.
// Later webhooks leave the original timestamp in place.
func (s *Store) SetNotificationReceivedAt(ctx context.Context, oid string, at time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE enrichment_requests SET notification_received_at = ?
         WHERE oid = ? AND notification_received_at IS NULL`,
		at.UTC().Format(time.RFC3339Nano),
		oid,
	)
	if err != nil {
		return fmt.Errorf("set notification received: %w", err)
	}
	return nil
}

// ListByStatus returns rows matching any of the provided statuses ordered by
// submission time.
func (s *Store) ListByStatus(ctx context.Context, statuses ...Status) ([]*Request, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	query := `SELECT ` + requestColumns + ` FROM enrichment_requests WHERE status IN (` + placeholders + `) ORDER BY request_sent_at`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// List returns all rows ordered by submission time.
func (s *Store) List(ctx context.Context) ([]*Request, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+requestColumns+` FROM enrichment_requests ORDER BY request_sent_at`)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// Stats returns a count of rows grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM enrichment_requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("ledger stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

const requestColumns = "oid, enrichment_id, request_sent_at, notification_received_at, language, status, name, parent_oid"

func scanRequest(scanner interface{ Scan(dest ...any) error }) (*Request, error) {
	var (
		oid             string
		enrichmentID    string
		sentRaw         string
		notificationRaw sql.NullString
		language        sql.NullString
		statusStr       string
		name            sql.NullString
		parentOID       sql.NullString
	)

	if err := scanner.Scan(
		&oid,
		&enrichmentID,
		&sentRaw,
		&notificationRaw,
		&language,
		&statusStr,
		&name,
		&parentOID,
	); err != nil {
		return nil, err
	}

	request := &Request{
		OID:          oid,
		EnrichmentID: enrichmentID,
		Language:     language.String,
		Status:       Status(statusStr),
		Name:         name.String,
		ParentOID:    parentOID.String,
	}

	if sent, err := parseTimeString(sentRaw); err == nil {
		request.RequestSentAt = sent
	}
	if notificationRaw.Valid {
		if at, err := parseTimeString(notificationRaw.String); err == nil {
			request.NotificationReceivedAt = &at
		}
	}
	return request, nil
}

func collectRequests(rows *sql.Rows) ([]*Request, error) {
	var requests []*Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

func requireRow(res sql.Result, oid string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: oid %s", ErrNotFound, oid)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
