// API service for making raw HTTP requests to a hosted REST database
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/pitchlog/internal/shared"
	"golang.org/x/oauth2"
)

// APIService makes raw HTTP requests against a base URL, adding a fixed set of headers to each.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
}

// NewAPIService creates a new API service instance. An empty baseURL targets a local PostgREST on port 3000.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		headers:    http.Header{},
	}
}

// NewKeyedAPIService creates an API service that authenticates with apiKey.
//
// The key is sent as a bearer token through an [oauth2.StaticTokenSource] and as the apikey header hosted
// PostgREST gateways expect.
func NewKeyedAPIService(ctx context.Context, baseURL, apiKey string) *APIService {
	var client *http.Client
	if apiKey != "" {
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"}))
	}

	a := NewAPIService(baseURL, client)
	if apiKey != "" {
		a.headers.Set("apikey", apiKey)
	}
	return a
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err converts a non-2xx response into an error wrapping [shared.ErrServiceUnavailable] for 502-504 and
// [shared.ErrAPIRequest] otherwise.
func (r *APIResponse) Err() error {
	if r.OK() {
		return nil
	}

	msg := strings.TrimSpace(string(r.Body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}

	switch r.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: status %d: %s", shared.ErrServiceUnavailable, r.StatusCode, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, r.StatusCode, msg)
	}
}

// Decode unmarshals the JSON body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Do performs a request to path with an optional JSON body and extra headers and returns the raw response.
func (a *APIService) Do(ctx context.Context, method, path string, body []byte, header http.Header) (*APIResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, vs := range a.headers {
		req.Header[k] = vs
	}
	for k, vs := range header {
		req.Header[k] = vs
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}, nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, nil, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte, header http.Header) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPost, path, data, header)
}

// Delete performs a DELETE request to the specified path and returns the raw response.
func (a *APIService) Delete(ctx context.Context, path string, header http.Header) (*APIResponse, error) {
	return a.Do(ctx, http.MethodDelete, path, nil, header)
}
