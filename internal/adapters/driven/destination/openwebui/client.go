// Package openwebui is the destination-side adapter: an Open-WebUI
// knowledge-base client implementing the Destination port. It performs
// single requests; retry, batching policy and state tracking belong to
// the core dispatchers.
package openwebui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
	"github.com/pagesync-labs/pagesync-cli/internal/core/ports/driven"
	"github.com/pagesync-labs/pagesync-cli/internal/logger"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// maxErrorBody bounds how much of an error response is read for the
// failure message.
const maxErrorBody = 4 << 10

// Client talks to one Open-WebUI instance.
type Client struct {
	http    *http.Client
	baseURL string
}

var _ driven.Destination = (*Client)(nil)

// Config holds adapter settings.
type Config struct {
	// BaseURL is the instance root, without a trailing slash.
	BaseURL string

	// APIKey is sent as a bearer credential.
	APIKey string

	// Timeout bounds every HTTP request.
	Timeout time.Duration
}

// ConfigFromSettings derives the adapter config from run settings.
func ConfigFromSettings(s domain.ExportSettings) Config {
	return Config{
		BaseURL: s.DestinationBaseURL,
		APIKey:  s.DestinationAPIKey,
		Timeout: s.RequestTimeout,
	}
}

// NewClient creates a client from the adapter config.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("%w: destination base URL is required", domain.ErrInvalidInput)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey})
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = cfg.Timeout

	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// APIError is a non-2xx Open-WebUI response.
type APIError struct {
	StatusCode int
	Detail     string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openwebui: API error %d: %s (URL: %s)", e.StatusCode, e.Detail, e.URL)
}

// HTTPStatus exposes the status code for policy-based retry
// classification.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// Unwrap maps well-known statuses onto domain sentinels. A 400 here is
// a rejected payload, not a malformed query.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrAuthentication
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge,
		http.StatusUnsupportedMediaType, http.StatusUnprocessableEntity:
		return domain.ErrUploadFatal
	default:
		return nil
	}
}

// isDuplicate reports whether the error is the destination's
// duplicate-content rejection.
func isDuplicate(err *APIError) bool {
	return err.StatusCode == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(err.Detail), "duplicate content detected")
}

// Validate checks connectivity and credentials via the health endpoint.
func (c *Client) Validate(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("health check: %w", domain.ErrAuthentication)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: %w: status %d", domain.ErrDestinationUnavailable, resp.StatusCode)
	}

	// Some deployments serve the SPA at /health; a 200 is good enough
	// then. JSON bodies must carry a healthy status.
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		return nil
	}
	var health struct {
		Status any `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("health check: %w: unreadable response", domain.ErrDestinationUnavailable)
	}
	switch health.Status {
	case true, "ok", "true":
		return nil
	default:
		return fmt.Errorf("health check: %w: status %v", domain.ErrDestinationUnavailable, health.Status)
	}
}

type knowledgeBase struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// EnsureContainer returns the identifier of the named knowledge base,
// creating it when absent.
func (c *Client) EnsureContainer(ctx context.Context, name, description string) (string, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/knowledge/", nil, "")
	if err != nil {
		return "", fmt.Errorf("list knowledge bases: %w", err)
	}

	for _, kb := range decodeKnowledgeList(body) {
		if kb.Name == name {
			logger.Debug("Found existing knowledge base %q (%s)", name, kb.ID)
			return kb.ID, nil
		}
	}

	payload, err := json.Marshal(map[string]any{
		"name":           name,
		"description":    description,
		"access_control": map[string]any{},
	})
	if err != nil {
		return "", fmt.Errorf("encode knowledge base: %w", err)
	}
	body, err = c.do(ctx, http.MethodPost, "/api/v1/knowledge/create", bytes.NewReader(payload), "application/json")
	if err != nil {
		return "", fmt.Errorf("create knowledge base %q: %w", name, err)
	}

	var created knowledgeBase
	if err := json.Unmarshal(body, &created); err != nil || created.ID == "" {
		return "", fmt.Errorf("create knowledge base %q: response carries no id", name)
	}
	logger.Info("Created knowledge base %q (%s)", name, created.ID)
	return created.ID, nil
}

// decodeKnowledgeList reads both response shapes the API has shipped: a
// bare array and an object wrapping one.
func decodeKnowledgeList(body []byte) []knowledgeBase {
	var list []knowledgeBase
	if json.Unmarshal(body, &list) == nil {
		return list
	}
	var wrapped struct {
		Items []knowledgeBase `json:"items"`
	}
	if json.Unmarshal(body, &wrapped) == nil {
		return wrapped.Items
	}
	return nil
}

// UploadItem uploads one artifact and registers it in the knowledge
// base. A duplicate-content rejection is a skip, not a failure.
func (c *Client) UploadItem(ctx context.Context, containerID string, item domain.UploadItem) (*driven.UploadOutcome, error) {
	fileID, err := c.uploadFile(ctx, item)
	if err != nil {
		return nil, err
	}

	if err := c.registerFile(ctx, containerID, fileID); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && isDuplicate(apiErr) {
			return &driven.UploadOutcome{Duplicate: true}, nil
		}
		return nil, err
	}
	return &driven.UploadOutcome{FileID: fileID}, nil
}

// UploadBatch uploads every file, then registers the delivered ones in
// one request. Per-file upload failures come back in the outcomes; a
// failed batch registration fails the whole batch.
func (c *Client) UploadBatch(ctx context.Context, batch domain.UploadBatch) ([]driven.UploadOutcome, error) {
	outcomes := make([]driven.UploadOutcome, len(batch.Items))
	var registered []string
	var registeredIdx []int

	for i, item := range batch.Items {
		fileID, err := c.uploadFile(ctx, item)
		if err != nil {
			if errors.Is(err, domain.ErrAuthentication) {
				return nil, err
			}
			outcomes[i] = driven.UploadOutcome{Err: err}
			continue
		}
		outcomes[i] = driven.UploadOutcome{FileID: fileID}
		registered = append(registered, fileID)
		registeredIdx = append(registeredIdx, i)
	}

	if len(registered) == 0 {
		return outcomes, nil
	}

	if err := c.registerBatch(ctx, batch.DestinationID, registered); err != nil {
		// Delivered files without a registration are useless; report
		// the failure per uploaded item so the dispatcher retries them.
		for _, i := range registeredIdx {
			outcomes[i] = driven.UploadOutcome{Err: err}
		}
		if errors.Is(err, domain.ErrAuthentication) {
			return nil, err
		}
	}
	return outcomes, nil
}

type filePayload struct {
	ID string `json:"id"`
}

// uploadFile sends one multipart upload and returns the file id.
func (c *Client) uploadFile(ctx context.Context, item domain.UploadItem) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, item.Filename))
	header.Set("Content-Type", item.MediaType)
	part, err := w.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("build multipart: %w", err)
	}
	if _, err := part.Write(item.Content); err != nil {
		return "", fmt.Errorf("build multipart: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("build multipart: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/api/v1/files/", &buf, w.FormDataContentType())
	if err != nil {
		return "", fmt.Errorf("upload file %q: %w", item.Filename, err)
	}

	var file filePayload
	if err := json.Unmarshal(body, &file); err != nil || file.ID == "" {
		return "", fmt.Errorf("upload file %q: response carries no id", item.Filename)
	}
	return file.ID, nil
}

// registerFile attaches one uploaded file to the knowledge base.
func (c *Client) registerFile(ctx context.Context, containerID, fileID string) error {
	payload, err := json.Marshal(map[string]string{"file_id": fileID})
	if err != nil {
		return fmt.Errorf("encode file registration: %w", err)
	}
	path := fmt.Sprintf("/api/v1/knowledge/%s/file/add", containerID)
	if _, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(payload), "application/json"); err != nil {
		return fmt.Errorf("register file %s: %w", fileID, err)
	}
	return nil
}

// registerBatch attaches uploaded files to the knowledge base in one
// request.
func (c *Client) registerBatch(ctx context.Context, containerID string, fileIDs []string) error {
	entries := make([]map[string]string, len(fileIDs))
	for i, id := range fileIDs {
		entries[i] = map[string]string{"file_id": id}
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode batch registration: %w", err)
	}
	path := fmt.Sprintf("/api/v1/knowledge/%s/files/batch/add", containerID)
	if _, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(payload), "application/json"); err != nil {
		return fmt.Errorf("register batch of %d: %w", len(fileIDs), err)
	}
	return nil
}

// do performs one request and returns the response body. Non-2xx
// statuses come back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	u := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(resp.Body),
			URL:        u,
		}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", u, err)
	}
	return respBody, nil
}

// errorDetail extracts the server's failure detail, falling back to the
// raw body prefix.
func errorDetail(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(body) == 0 {
		return "no response body"
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Detail != "" {
		return payload.Detail
	}
	return string(body)
}
