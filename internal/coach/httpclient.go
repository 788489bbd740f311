package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/repflow/internal/models"
	"github.com/claude/repflow/internal/session"
)

// HTTPClient implements DataSource by calling the RepFlow REST API. Used
// for remote coach mode where the MCP binary runs locally (stdio) but data
// lives on the remote server.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time checks: HTTPClient satisfies both source interfaces.
var (
	_ DataSource = (*HTTPClient)(nil)
	_ LiveSource = (*HTTPClient)(nil)
)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}
	return body, nil
}

var errNotFound = fmt.Errorf("not found")

// LoadHistory retrieves finished workouts via the REST API.
func (c *HTTPClient) LoadHistory(ctx context.Context, _ int) ([]models.HistoryEntry, error) {
	body, err := c.get(ctx, "/api/v1/coach/history")
	if err != nil {
		return nil, err
	}
	var entries []models.HistoryEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("httpclient: decode history: %w", err)
	}
	return entries, nil
}

// LoadRecords retrieves personal records via the REST API.
func (c *HTTPClient) LoadRecords(ctx context.Context, _ int) ([]models.PersonalRecord, error) {
	body, err := c.get(ctx, "/api/v1/coach/records")
	if err != nil {
		return nil, err
	}
	var records []models.PersonalRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("httpclient: decode records: %w", err)
	}
	return records, nil
}

// ActiveSession retrieves the in-flight session, or nil if none.
func (c *HTTPClient) ActiveSession(ctx context.Context, _ int) (*session.State, error) {
	body, err := c.get(ctx, "/api/v1/coach/session")
	if err == errNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state session.State
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("httpclient: decode session: %w", err)
	}
	return &state, nil
}
