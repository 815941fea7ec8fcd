// Package client provides the HTTP client for the evaluation API. It handles
// request serialization, batching, rate limiting and error responses.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"evalops/internal/application/common/slogger"
	"evalops/internal/domain/entity"
	"evalops/internal/port/outbound"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// userAgent is the User-Agent header value sent with all API requests.
	userAgent = "evalops-client/1.0"

	// contentTypeJSON is the Content-Type header value for JSON requests.
	contentTypeJSON = "application/json"

	// pathTestCases is the batch upload endpoint.
	pathTestCases = "/v1/test-cases"
)

// Client uploads discovered test cases to the evaluation API.
type Client struct {
	baseURL    string
	apiKey     string
	batchSize  int
	httpClient *http.Client
	limiter    *rate.Limiter
}

// APIError represents an error response from the evaluation API.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// NewClient creates a new API client with the given configuration.
// Returns an error if the configuration is nil or invalid.
func NewClient(config *Config) (*Client, error) {
	return NewClientWithHTTPClient(config, nil)
}

// NewClientWithHTTPClient creates a new API client with the given
// configuration and HTTP client. If httpClient is nil, a default HTTP client
// with the configured timeout is used.
func NewClientWithHTTPClient(config *Config, httpClient *http.Client) (*Client, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		baseURL:    config.BaseURL,
		apiKey:     config.APIKey,
		batchSize:  config.BatchSize,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
	}, nil
}

var _ outbound.TestCaseUploader = (*Client)(nil)

// uploadBatchRequest is the wire shape of one batch upload.
type uploadBatchRequest struct {
	RunID     string                  `json:"runId"`
	TestCases []entity.ParsedTestCase `json:"testCases"`
}

// uploadBatchResponse is the wire shape of the API's batch reply.
type uploadBatchResponse struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// UploadTestCases uploads the given test cases in batches under a single run
// ID. Requests are throttled by the configured rate limit. An empty input is
// a no-op that still yields a result.
func (c *Client) UploadTestCases(
	ctx context.Context,
	cases []entity.ParsedTestCase,
) (*outbound.UploadResult, error) {
	result := &outbound.UploadResult{RunID: uuid.NewString()}
	if len(cases) == 0 {
		return result, nil
	}

	for start := 0; start < len(cases); start += c.batchSize {
		end := start + c.batchSize
		if end > len(cases) {
			end = len(cases)
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		var response uploadBatchResponse
		request := uploadBatchRequest{RunID: result.RunID, TestCases: cases[start:end]}
		if err := c.doRequest(ctx, http.MethodPost, pathTestCases, request, &response); err != nil {
			return nil, fmt.Errorf("batch upload failed at offset %d: %w", start, err)
		}

		result.Uploaded += response.Accepted
		result.Skipped += response.Rejected

		slogger.Debug(ctx, "Test case batch uploaded", slogger.Fields{
			"run_id":   result.RunID,
			"offset":   start,
			"accepted": response.Accepted,
			"rejected": response.Rejected,
		})
	}

	slogger.Info(ctx, "Upload run completed", slogger.Fields{
		"run_id":   result.RunID,
		"uploaded": result.Uploaded,
		"skipped":  result.Skipped,
	})

	return result, nil
}

// doRequest performs an HTTP request and decodes the JSON response. If body
// is non-nil it is JSON-encoded; if result is non-nil the response body is
// decoded into it. Non-2xx responses become APIError values.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	var payload *bytes.Buffer
	if body != nil {
		payload = &bytes.Buffer{}
		if err := json.NewEncoder(payload).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	var reader *bytes.Buffer
	if payload != nil {
		reader = payload
	} else {
		reader = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", contentTypeJSON)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr == nil && errBody.Error != "" {
			apiErr.Message = errBody.Error
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
