package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"evalops/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCases builds n minimal test cases for upload tests.
func testCases(n int) []entity.ParsedTestCase {
	cases := make([]entity.ParsedTestCase, 0, n)
	for range n {
		cases = append(cases, entity.NewParsedTestCase(
			entity.DeclarationConfig{Description: "case"},
			"function f() {}",
			entity.TestCaseMetadata{FilePath: "a.eval.ts", FunctionName: "f", LineNumber: 1},
		))
	}
	return cases
}

func TestConfigValidate(t *testing.T) {
	t.Run("should apply defaults for zero values", func(t *testing.T) {
		cfg := &Config{BaseURL: "https://api.example.com"}

		require.NoError(t, cfg.Validate())

		assert.Equal(t, DefaultTimeout, cfg.Timeout)
		assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
		assert.InDelta(t, DefaultRequestsPerSecond, cfg.RequestsPerSecond, 1e-9)
	})

	t.Run("should reject missing or non-http base URLs", func(t *testing.T) {
		assert.Error(t, (&Config{}).Validate())
		assert.Error(t, (&Config{BaseURL: "ftp://files.example.com"}).Validate())
	})

	t.Run("should reject negative settings", func(t *testing.T) {
		assert.Error(t, (&Config{BaseURL: "https://x", Timeout: -1}).Validate())
		assert.Error(t, (&Config{BaseURL: "https://x", BatchSize: -1}).Validate())
		assert.Error(t, (&Config{BaseURL: "https://x", RequestsPerSecond: -1}).Validate())
	})
}

func TestNewClient(t *testing.T) {
	t.Run("should reject a nil config", func(t *testing.T) {
		_, err := NewClient(nil)
		assert.Error(t, err)
	})

	t.Run("should reject an invalid config", func(t *testing.T) {
		_, err := NewClient(&Config{})
		assert.Error(t, err)
	})
}

func TestUploadTestCases(t *testing.T) {
	ctx := context.Background()

	t.Run("should upload batches under a single run ID", func(t *testing.T) {
		var requests []uploadBatchRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, pathTestCases, r.URL.Path)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			assert.Equal(t, userAgent, r.Header.Get("User-Agent"))

			var req uploadBatchRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			requests = append(requests, req)

			_ = json.NewEncoder(w).Encode(uploadBatchResponse{Accepted: len(req.TestCases)})
		}))
		defer server.Close()

		client, err := NewClient(&Config{
			BaseURL:           server.URL,
			APIKey:            "secret",
			BatchSize:         2,
			RequestsPerSecond: 1000,
		})
		require.NoError(t, err)

		result, err := client.UploadTestCases(ctx, testCases(5))
		require.NoError(t, err)

		assert.Equal(t, 5, result.Uploaded)
		assert.Zero(t, result.Skipped)
		assert.NotEmpty(t, result.RunID)

		require.Len(t, requests, 3)
		assert.Len(t, requests[0].TestCases, 2)
		assert.Len(t, requests[2].TestCases, 1)
		for _, req := range requests {
			assert.Equal(t, result.RunID, req.RunID)
		}
	})

	t.Run("should count API-rejected cases as skipped", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req uploadBatchRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			_ = json.NewEncoder(w).Encode(uploadBatchResponse{
				Accepted: len(req.TestCases) - 1,
				Rejected: 1,
			})
		}))
		defer server.Close()

		client, err := NewClient(&Config{BaseURL: server.URL, RequestsPerSecond: 1000})
		require.NoError(t, err)

		result, err := client.UploadTestCases(ctx, testCases(3))
		require.NoError(t, err)

		assert.Equal(t, 2, result.Uploaded)
		assert.Equal(t, 1, result.Skipped)
	})

	t.Run("should return an APIError on non-2xx responses", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad api key"})
		}))
		defer server.Close()

		client, err := NewClient(&Config{BaseURL: server.URL, RequestsPerSecond: 1000})
		require.NoError(t, err)

		_, err = client.UploadTestCases(ctx, testCases(1))
		require.Error(t, err)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "bad api key", apiErr.Message)
	})

	t.Run("should not call the API for an empty input", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			t.Error("unexpected request")
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client, err := NewClient(&Config{BaseURL: server.URL})
		require.NoError(t, err)

		result, err := client.UploadTestCases(ctx, nil)
		require.NoError(t, err)

		assert.Zero(t, result.Uploaded)
		assert.NotEmpty(t, result.RunID)
	})
}
