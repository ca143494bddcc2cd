package aristote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"enrichd/internal/config"
	"enrichd/internal/logging"
)

// HTTPDoer abstracts the HTTP client for testability.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option customises Client construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for enrichment API calls.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// Client talks to the Aristote enrichment API.
type Client struct {
	baseURL           string
	portalBaseURL     string
	clientID          string
	clientSecret      string
	endUserIdentifier string
	webhookURL        string
	httpClient        HTTPDoer
	logger            *slog.Logger

	tokenMu sync.Mutex
	token   tokenState
}

// New builds a Client from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	client := &Client{
		baseURL:           strings.TrimRight(cfg.Aristote.BaseURL, "/"),
		portalBaseURL:     strings.TrimRight(cfg.Aristote.PortalBaseURL, "/"),
		clientID:          cfg.Aristote.ClientID,
		clientSecret:      cfg.Aristote.ClientSecret,
		endUserIdentifier: cfg.Aristote.EndUserIdentifier,
		httpClient:        &http.Client{Timeout: cfg.AristoteTimeout()},
		logger:            logging.WithComponent(logger, "aristote"),
	}
	if base := strings.TrimRight(cfg.Server.PublicBaseURL, "/"); base != "" {
		client.webhookURL = base + "/webhook"
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: cfg.AristoteTimeout()}
	}
	return client, nil
}

// SubmitParams describes a new enrichment submission.
type SubmitParams struct {
	// SourceURL is the publicly reachable media URL the service downloads.
	SourceURL string
	// WebhookURL receives status notifications for the job.
	WebhookURL string
	// Language is the known source language; empty requests auto-detection.
	Language string
}

type enrichmentParameters struct {
	GenerateMetadata bool   `json:"generateMetadata"`
	GenerateQuiz     bool   `json:"generateQuiz"`
	Language         string `json:"language,omitempty"`
	TranslateTo      string `json:"translateTo,omitempty"`
}

type submitRequest struct {
	URL                    string               `json:"url"`
	NotificationWebhookURL string               `json:"notificationWebhookUrl"`
	EnrichmentParameters   enrichmentParameters `json:"enrichmentParameters"`
	EndUserIdentifier      string               `json:"endUserIdentifier,omitempty"`
}

type submitResponse struct {
	ID string `json:"id"`
}

// Submit registers a new enrichment job and returns its identifier. When a
// source language is given the fixed translation pairing is requested along
// with it; otherwise the service auto-detects and no translation target is
// set.
func (c *Client) Submit(ctx context.Context, params SubmitParams) (string, error) {
	payload := submitRequest{
		URL:                    params.SourceURL,
		NotificationWebhookURL: params.WebhookURL,
		EnrichmentParameters: enrichmentParameters{
			GenerateMetadata: false,
			GenerateQuiz:     false,
			Language:         params.Language,
			TranslateTo:      TranslationTarget(params.Language),
		},
		EndUserIdentifier: c.endUserIdentifier,
	}

	var parsed submitResponse
	if err := c.doJSON(ctx, http.MethodPost, "/enrichments/url", payload, &parsed); err != nil {
		return "", err
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("submit response missing enrichment id")
	}
	c.logger.Info("enrichment submitted", "enrichment_id", parsed.ID, "language", params.Language)
	return parsed.ID, nil
}

// NewVersionParams describes a follow-up AI pass on an existing job.
type NewVersionParams struct {
	// Language is the known transcript language of the job.
	Language string
	// GenerateQuiz requests quiz generation instead of a translation pass.
	GenerateQuiz bool
}

type newVersionRequest struct {
	NotificationWebhookURL string               `json:"notificationWebhookUrl,omitempty"`
	EnrichmentParameters   enrichmentParameters `json:"enrichmentParameters"`
	EndUserIdentifier      string               `json:"endUserIdentifier,omitempty"`
}

// RequestNewVersion asks the service for an additional AI version of an
// existing job without re-uploading the source media. The webhook URL and end
// user identifier are re-sent so the follow-up notifies the same endpoint as
// the original submission.
func (c *Client) RequestNewVersion(ctx context.Context, enrichmentID string, params NewVersionParams) error {
	translateTo := ""
	if !params.GenerateQuiz {
		translateTo = TranslationTarget(params.Language)
	}
	payload := newVersionRequest{
		NotificationWebhookURL: c.webhookURL,
		EnrichmentParameters: enrichmentParameters{
			GenerateMetadata: false,
			GenerateQuiz:     params.GenerateQuiz,
			Language:         params.Language,
			TranslateTo:      translateTo,
		},
		EndUserIdentifier: c.endUserIdentifier,
	}

	path := fmt.Sprintf("/enrichments/%s/new_ai_version", url.PathEscape(enrichmentID))
	if err := c.doJSON(ctx, http.MethodPost, path, payload, nil); err != nil {
		return err
	}
	c.logger.Info("follow-up version requested",
		"enrichment_id", enrichmentID,
		"language", params.Language,
		"quiz", params.GenerateQuiz)
	return nil
}

// GetEnrichment fetches the current state of a job.
func (c *Client) GetEnrichment(ctx context.Context, enrichmentID string) (*Enrichment, error) {
	var parsed Enrichment
	path := fmt.Sprintf("/enrichments/%s", url.PathEscape(enrichmentID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// GetVersion fetches a specific AI version of a job.
func (c *Client) GetVersion(ctx context.Context, enrichmentID, versionID string) (*Version, error) {
	var parsed Version
	path := fmt.Sprintf("/enrichments/%s/versions/%s", url.PathEscape(enrichmentID), url.PathEscape(versionID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

type versionsResponse struct {
	Content []Version `json:"content"`
}

// LatestVersionID returns the identifier of the most recent AI version of a
// job.
func (c *Client) LatestVersionID(ctx context.Context, enrichmentID string) (string, error) {
	var parsed versionsResponse
	path := fmt.Sprintf("/enrichments/%s/versions", url.PathEscape(enrichmentID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("enrichment %s has no versions", enrichmentID)
	}
	return parsed.Content[len(parsed.Content)-1].ID, nil
}

// DownloadTranscript fetches the subtitle text of a version. When language is
// empty the primary transcript track is returned, otherwise the track
// translated to that language.
func (c *Client) DownloadTranscript(ctx context.Context, enrichmentID, versionID, language string) (string, error) {
	path := fmt.Sprintf("/enrichments/%s/versions/%s/download_transcript",
		url.PathEscape(enrichmentID), url.PathEscape(versionID))
	if language != "" {
		path += "?language=" + url.QueryEscape(language)
	}

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return string(body), nil
}

// PortalURL returns the human-facing page for a job on the provider portal.
func (c *Client) PortalURL(enrichmentID string) string {
	return c.portalBaseURL + "/" + url.PathEscape(enrichmentID)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, &RemoteError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", path, err)
		}
		body = bytes.NewReader(encoded)
	}

	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := decodeJSON(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeJSON(r io.Reader, out any) error {
	return json.NewDecoder(r).Decode(out)
}
