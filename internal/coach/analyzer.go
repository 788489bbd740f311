package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Analyzer produces a short coach write-up for a finished session summary.
type Analyzer interface {
	Analyze(ctx context.Context, summary string) (string, error)
}

// HTTPAnalyzer calls an external analysis endpoint. It is best effort by
// contract: callers treat any error as "no analysis" and move on.
type HTTPAnalyzer struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPAnalyzer creates an analyzer for the given endpoint.
func NewHTTPAnalyzer(endpoint, apiKey string) *HTTPAnalyzer {
	return &HTTPAnalyzer{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Analyze POSTs the session summary and returns the analysis text.
func (a *HTTPAnalyzer) Analyze(ctx context.Context, summary string) (string, error) {
	payload, err := json.Marshal(map[string]string{"summary": summary})
	if err != nil {
		return "", fmt.Errorf("marshaling summary: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("X-API-Key", a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling analyzer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("analyzer returned %d: %s", resp.StatusCode, body)
	}

	var out struct {
		Analysis string `json:"analysis"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding analysis: %w", err)
	}
	return out.Analysis, nil
}
