package mediaserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"enrichd/internal/config"
	"enrichd/internal/logging"
)

// HTTPDoer abstracts the HTTP client for testability.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option customises Client construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for platform API calls.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// Client talks to the media platform API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
	logger     *slog.Logger
}

// New builds a Client from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	client := &Client{
		baseURL:    strings.TrimRight(cfg.MediaServer.URL, "/"),
		apiKey:     cfg.MediaServer.APIKey,
		httpClient: &http.Client{Timeout: cfg.MediaServerTimeout()},
		logger:     logging.WithComponent(logger, "mediaserver"),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: cfg.MediaServerTimeout()}
	}
	return client, nil
}

// ChannelContent lists one level of the catalog. An empty parentOID lists the
// platform root.
func (c *Client) ChannelContent(ctx context.Context, parentOID string) (*ChannelContent, error) {
	params := url.Values{"content": {"cv"}}
	if parentOID != "" {
		params.Set("parent_oid", parentOID)
	}

	var content ChannelContent
	if err := c.getJSON(ctx, "/api/v2/channels/content/", params, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

type resourcesResponse struct {
	Resources []Resource `json:"resources"`
}

// ResourcesList fetches the stored renditions of a video.
func (c *Client) ResourcesList(ctx context.Context, oid string) ([]Resource, error) {
	params := url.Values{"oid": {oid}}

	var parsed resourcesResponse
	if err := c.getJSON(ctx, "/api/v2/medias/resources-list/", params, &parsed); err != nil {
		return nil, err
	}
	return parsed.Resources, nil
}

type downloadResponse struct {
	URL string `json:"url"`
}

// DownloadURL resolves the time-limited direct-download URL for a resource.
func (c *Client) DownloadURL(ctx context.Context, oid, resourcePath string) (string, error) {
	params := url.Values{
		"oid":      {oid},
		"url":      {resourcePath},
		"redirect": {"no"},
	}

	var parsed downloadResponse
	if err := c.getJSON(ctx, "/api/v2/download/", params, &parsed); err != nil {
		return "", err
	}
	if parsed.URL == "" {
		return "", fmt.Errorf("download response for %s has no url", oid)
	}
	return parsed.URL, nil
}

type subtitlesResponse struct {
	Subtitles []Subtitle `json:"subtitles"`
}

// Subtitles lists the subtitle tracks of a video.
func (c *Client) Subtitles(ctx context.Context, oid string) ([]Subtitle, error) {
	params := url.Values{"oid": {oid}}

	var parsed subtitlesResponse
	if err := c.getJSON(ctx, "/api/v2/subtitles/", params, &parsed); err != nil {
		return nil, err
	}
	return parsed.Subtitles, nil
}

// AddSubtitleParams describes a subtitle track upload.
type AddSubtitleParams struct {
	OID      string
	Lang     string
	Title    string
	FileName string
	Content  []byte
}

// AddSubtitle uploads a subtitle track, marked validated so it is served
// immediately.
func (c *Client) AddSubtitle(ctx context.Context, params AddSubtitleParams) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"api_key":   c.apiKey,
		"oid":       params.OID,
		"lang":      params.Lang,
		"title":     params.Title,
		"validated": "yes",
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("write subtitle field %s: %w", key, err)
		}
	}

	part, err := writer.CreateFormFile("file", params.FileName)
	if err != nil {
		return fmt.Errorf("create subtitle file part: %w", err)
	}
	if _, err := part.Write(params.Content); err != nil {
		return fmt.Errorf("write subtitle content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize subtitle upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/subtitles/add/", &body)
	if err != nil {
		return fmt.Errorf("build subtitle add request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("add subtitle: %w", err)
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return err
	}

	c.logger.Info("subtitle track added", "oid", params.OID, "lang", params.Lang, "title", params.Title)
	return nil
}

// DeleteSubtitle removes a subtitle track by identifier.
func (c *Client) DeleteSubtitle(ctx context.Context, id int64) error {
	form := url.Values{
		"api_key": {c.apiKey},
		"id":      {strconv.FormatInt(id, 10)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/subtitles/delete/", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build subtitle delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete subtitle: %w", err)
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return err
	}

	c.logger.Info("subtitle track deleted", "subtitle_id", id)
	return nil
}

// StreamResource opens a streaming GET on a resolved download URL. The caller
// owns the returned response body.
func (c *Client) StreamResource(ctx context.Context, downloadURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build resource request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch resource: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, &RemoteError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &RemoteError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
}
