// Package justice implements the SearchGateway port against the Web Justice
// AI-agent API using direct HTTP calls.
package justice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"justice-agent-tools/internal/domain"
	"justice-agent-tools/internal/domain/model"
	"justice-agent-tools/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.SearchGateway = (*Client)(nil)

const userAgent = "justice-agent-tools/1.0"

// Client talks to the remote search service. It holds only immutable
// configuration, so one instance is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("justice api key empty")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type initiateRequest struct {
	Document   string `json:"document"`
	SearchType string `json:"search_type"`
}

// statusResponse mirrors the detailed-status payload. The service reports a
// coarse status string plus a readiness flag; some deployments inline the
// result payload once the job is done.
type statusResponse struct {
	JobID                  string          `json:"job_id"`
	CurrentStatus          string          `json:"current_status"`
	ProgressPercentage     int             `json:"progress_percentage"`
	CurrentPhase           string          `json:"current_phase"`
	IsReadyForConsultation bool            `json:"is_ready_for_consultation"`
	ErrorCode              string          `json:"error_code"`
	Data                   json.RawMessage `json:"data"`
	DataDetails            json.RawMessage `json:"data_details"`
}

// StartSearch implements SearchGateway.StartSearch.
func (c *Client) StartSearch(ctx context.Context, identifier string, searchType model.SearchType) (*model.SearchInfo, error) {
	body, err := json.Marshal(initiateRequest{Document: identifier, SearchType: string(searchType)})
	if err != nil {
		return nil, fmt.Errorf("marshal initiate request: %w", err)
	}
	var info model.SearchInfo
	if err := c.do(ctx, http.MethodPost, "/api/ai-agent/initiate-search", body, &info); err != nil {
		return nil, err
	}
	if info.JobID == "" {
		return nil, fmt.Errorf("%w: initiate-search returned no job_id", domain.ErrBadRequest)
	}
	return &info, nil
}

// Status implements SearchGateway.Status. The returned SearchJob is a
// read-only projection of what the remote endpoint reported.
func (c *Client) Status(ctx context.Context, jobID string) (*model.SearchJob, error) {
	var sr statusResponse
	if err := c.do(ctx, http.MethodGet, "/api/searches/"+jobID+"/detailed-status", nil, &sr); err != nil {
		return nil, err
	}
	job := &model.SearchJob{
		JobID:     jobID,
		Status:    mapStatus(&sr),
		Progress:  sr.ProgressPercentage,
		Phase:     sr.CurrentPhase,
		ErrorCode: sr.ErrorCode,
		CheckedAt: time.Now(),
	}
	// older deployments use "data", newer ones "data_details"
	if len(sr.DataDetails) > 0 {
		job.Result = sr.DataDetails
	} else if len(sr.Data) > 0 {
		job.Result = sr.Data
	}
	return job, nil
}

// Results implements SearchGateway.Results.
func (c *Client) Results(ctx context.Context, identifier string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/ai-agent/processos/"+identifier, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// CheckAuth implements SearchGateway.CheckAuth.
func (c *Client) CheckAuth(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/ai-agent/test-auth", nil, nil)
}

// Health implements SearchGateway.Health.
func (c *Client) Health(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/health", nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// do performs one round trip and decodes the JSON body into out (skipped when
// out is nil). No retries here: retry and backoff policy belongs to the
// polling engine.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	if err := mapHTTPError(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrTransport, path, err)
	}
	return nil
}

// mapHTTPError folds HTTP status codes into the domain error taxonomy.
func mapHTTPError(resp *http.Response) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: http %d", domain.ErrAuth, resp.StatusCode)
	case resp.StatusCode == http.StatusTooEarly:
		return fmt.Errorf("%w: http %d", domain.ErrResultsNotReady, resp.StatusCode)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: http %d", domain.ErrTransport, resp.StatusCode)
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: http %d: %s", domain.ErrBadRequest, resp.StatusCode, strings.TrimSpace(string(b)))
	}
}

func mapStatus(sr *statusResponse) model.SearchJobStatus {
	switch strings.ToLower(sr.CurrentStatus) {
	case "completed", "complete", "done":
		return model.SearchJobStatusCompleted
	case "failed", "error":
		return model.SearchJobStatusFailed
	}
	if sr.IsReadyForConsultation {
		return model.SearchJobStatusCompleted
	}
	return model.SearchJobStatusPending
}
