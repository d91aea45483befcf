package service

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
)

// ErrFactCheckUnconfigured means no endpoint was configured.
var ErrFactCheckUnconfigured = errors.New("fact check endpoint is not configured")

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FactCheckResult is the collaborator's verdict. The service is treated as
// best effort: a failed call comes back as Success=false with the reason,
// never as a retry.
type FactCheckResult struct {
	Success  bool   `json:"success"`
	Analysis string `json:"analysis,omitempty"`
	Error    string `json:"error,omitempty"`
}

type factCheckRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type factCheckResponse struct {
	Analysis string `json:"analysis"`
	Content  string `json:"content"`
	Error    string `json:"error"`
}

// FactCheckService talks to the external LLM fact-check/rewrite endpoint.
type FactCheckService struct {
	http    httpDoer
	baseURL string
	apiKey  string
}

// NewFactCheckService constructs a client for the given endpoint. An empty
// baseURL leaves the service unconfigured; calls then fail fast.
func NewFactCheckService(baseURL, apiKey string) *FactCheckService {
	return &FactCheckService{
		http:    &http.Client{Timeout: 120 * time.Second},
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
	}
}

// SetHTTPClient overrides the default HTTP client, mainly for tests.
func (s *FactCheckService) SetHTTPClient(client httpDoer) {
	if client == nil {
		s.http = &http.Client{Timeout: 20 * time.Second}
		return
	}
	s.http = client
}

// SetBaseURL overrides the configured endpoint, mainly for tests.
func (s *FactCheckService) SetBaseURL(base string) {
	s.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
}

// FactCheck submits title and content for analysis. Transport and remote
// failures are folded into the result object.
func (s *FactCheckService) FactCheck(ctx context.Context, title, content string) FactCheckResult {
	resp, err := s.call(ctx, "/fact-check", factCheckRequest{Title: title, Content: content})
	if err != nil {
		return FactCheckResult{Success: false, Error: err.Error()}
	}
	return FactCheckResult{Success: true, Analysis: resp.Analysis}
}

// Rewrite asks the collaborator for an expanded rendition of the content.
func (s *FactCheckService) Rewrite(ctx context.Context, title, content string) (string, error) {
	resp, err := s.call(ctx, "/rewrite", factCheckRequest{Title: title, Content: content})
	if err != nil {
		return "", err
	}
	rewritten := strings.TrimSpace(resp.Content)
	if rewritten == "" {
		return "", errors.New("rewrite returned empty content")
	}
	return rewritten, nil
}

func (s *FactCheckService) call(ctx context.Context, path string, payload factCheckRequest) (*factCheckResponse, error) {
	if s.baseURL == "" {
		return nil, ErrFactCheckUnconfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "afrowiki/1.0")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	client := s.http
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response failed: %w", err)
	}

	var parsed factCheckResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parsing response failed: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := strings.TrimSpace(parsed.Error)
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("fact check service error: %s", msg)
	}

	return &parsed, nil
}
