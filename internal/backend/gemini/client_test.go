package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/testutil"
)

func testAPIKey() string {
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		return key
	}
	return "test-key"
}

func userRequest(text string) *GenerateContentRequest {
	temp := 0.2
	return &GenerateContentRequest{
		SystemInstruction: &Content{Parts: []Part{{Text: "system"}}},
		Contents:          []Content{{Role: "user", Parts: []Part{{Text: text}}}},
		GenerationConfig:  &GenerationConfig{Temperature: &temp},
	}
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestClient_GenerateContent(t *testing.T) {
	if os.Getenv("GOOGLE_API_KEY") == "" && os.Getenv("VCR_MODE") == "record" {
		t.Skip("Skipping test: GOOGLE_API_KEY not set")
	}

	rec := testutil.NewVCRRecorder(t, "gemini_generate")
	c := NewClient(testAPIKey(), WithHTTPClient(testutil.VCRHTTPClient(rec)))

	resp, err := c.GenerateContent(context.Background(), "gemini-2.0-flash-lite", userRequest("classify"))
	require.NoError(t, err)

	texts := resp.Texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], `"purpose": "booking"`)
	require.NotNil(t, resp.UsageMetadata)
	assert.Equal(t, 243, resp.UsageMetadata.TotalTokenCount)
	assert.Equal(t, "gemini-2.0-flash-lite", resp.ModelVersion)
	assert.NotEmpty(t, resp.RawBody)
}

func TestClient_GenerateContent_RateLimitedIsNotRetried(t *testing.T) {
	rec := testutil.NewVCRRecorder(t, "gemini_rate_limited")
	c := NewClient(testAPIKey(), WithHTTPClient(testutil.VCRHTTPClient(rec)), WithMaxRetries(2))
	c.sleep = noSleep

	_, err := c.GenerateContent(context.Background(), "gemini-2.0-flash", userRequest("classify"))
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %T: %v", err, err)
	assert.Equal(t, 429, apiErr.Code)
	assert.Equal(t, "RESOURCE_EXHAUSTED", apiErr.Status)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "RESOURCE_EXHAUSTED")
}

func TestClient_GenerateContent_RetriesServerError(t *testing.T) {
	rec := testutil.NewVCRRecorder(t, "gemini_server_error_then_ok")
	c := NewClient(testAPIKey(), WithHTTPClient(testutil.VCRHTTPClient(rec)), WithMaxRetries(1))

	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	resp, err := c.GenerateContent(context.Background(), "gemini-2.5-flash-lite", userRequest("plan"))
	require.NoError(t, err)
	assert.Equal(t, []string{`{"goal": "Secure a booking slot"}`}, resp.Texts())
	assert.Equal(t, []time.Duration{baseBackoff}, slept)
}

func TestClient_GenerateContent_NoRetryBudget(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":500,"message":"internal","status":"INTERNAL"}}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithMaxRetries(0))
	_, err := c.GenerateContent(context.Background(), "m", userRequest("x"))
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "gemini status 500 INTERNAL")
}

func TestClient_GenerateContent_RequestShape(t *testing.T) {
	var (
		gotPath string
		gotKey  string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient("secret", WithBaseURL(srv.URL+"/"), WithHTTPClient(srv.Client()))
	_, err := c.GenerateContent(context.Background(), "gemini-2.0-flash", userRequest("hello"))
	require.NoError(t, err)

	assert.Equal(t, "/models/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Contains(t, gotBody, "systemInstruction")
	assert.Contains(t, gotBody, "contents")
	assert.Contains(t, gotBody, "generationConfig")
}

func TestClient_GenerateContent_NonEnvelopeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("models/nope is not found"))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	_, err := c.GenerateContent(context.Background(), "nope", userRequest("x"))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.Code)
	assert.Equal(t, "models/nope is not found", apiErr.Message)
}

func TestClient_GenerateContent_PromptBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	_, err := c.GenerateContent(context.Background(), "m", userRequest("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestClient_GenerateContent_RequiresModel(t *testing.T) {
	_, err := NewClient("k").GenerateContent(context.Background(), " ", userRequest("x"))
	assert.Error(t, err)
}
