// API service for making raw HTTP requests to the alignment API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/alignx/internal/shared"
)

// DefaultBaseURL is the production alignment API.
const DefaultBaseURL = "https://api.audioshake.ai"

// Request headers sent on every call.
const (
	HeaderAPIKey    = "x-api-key"
	HeaderRequestID = "X-Request-Id"
)

// APIService performs raw authenticated HTTP requests against the alignment API.
//
// Every request carries a fresh request id. Responses are returned whole, whatever their status.
type APIService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance.
func NewAPIService(baseURL, apiKey string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: client,
	}
}

// BaseURL returns the API root without a trailing slash.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// HasKey reports whether an API key is configured.
func (a *APIService) HasKey() bool {
	return a.apiKey != ""
}

// SetKey replaces the API key. It must not be called while requests are in flight.
func (a *APIService) SetKey(key string) {
	a.apiKey = strings.TrimSpace(key)
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	RequestID  string
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPost, path, data)
}

// Do sends a request to path, resolved against the base URL unless it is already absolute.
//
// The API key is only attached to requests under the base URL; signed output links are fetched without it.
func (a *APIService) Do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	fullURL := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		fullURL = a.baseURL + "/" + strings.TrimLeft(path, "/")
	}

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := shared.GenerateID()
	req.Header.Set(HeaderRequestID, requestID)
	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.apiKey != "" && strings.HasPrefix(fullURL, a.baseURL+"/") {
		req.Header.Set(HeaderAPIKey, a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		RequestID:  requestID,
		Body:       raw,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// errorMessage extracts the server's explanation from an error body: message, then error, then detail.
func errorMessage(resp *APIResponse) string {
	if obj, ok := resp.JSONData.(map[string]any); ok {
		for _, key := range []string{"message", "error", "detail"} {
			if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	if text := strings.TrimSpace(string(resp.Body)); text != "" && !resp.IsJSON && len(text) <= 200 {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// statusError converts a non-2xx response into an error wrapping [shared.ErrAPIRequest].
func statusError(resp *APIResponse) error {
	return fmt.Errorf("%w (status %d): %s", shared.ErrAPIRequest, resp.StatusCode, errorMessage(resp))
}
