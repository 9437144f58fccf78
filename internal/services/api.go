// API service for making raw HTTP requests to the FastAPI proxy
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/ytlinks/internal/shared"
)

// APIService provides methods for making raw HTTP requests to the FastAPI proxy.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance for the FastAPI proxy.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// SetupResponse is returned by the proxy's browser auth setup endpoint.
type SetupResponse struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message"`
	AuthContent map[string]any `json:"auth_content"`
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return a.do(req)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req)
}

func (a *APIService) do(req *http.Request) (*APIResponse, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// Health pings the proxy's /health endpoint.
func (a *APIService) Health(ctx context.Context) error {
	resp, err := a.Get(ctx, "/health")
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%w: proxy health status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}

// SetupBrowser sends raw browser headers to the proxy, which answers with browser.json contents.
func (a *APIService) SetupBrowser(ctx context.Context, headersRaw string) (*SetupResponse, error) {
	payload, err := json.Marshal(map[string]string{"headers_raw": headersRaw})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal setup request: %w", err)
	}

	resp, err := a.Post(ctx, "/auth/setup", payload)
	if err != nil {
		return nil, err
	}

	var setup SetupResponse
	if err := json.Unmarshal(resp.Body, &setup); err != nil {
		return nil, fmt.Errorf("failed to decode setup response (status %d): %w", resp.StatusCode, err)
	}
	if !resp.OK() && setup.Message == "" {
		setup.Message = fmt.Sprintf("proxy returned status %d", resp.StatusCode)
	}
	if !resp.OK() {
		setup.Success = false
	}
	return &setup, nil
}
