package gemini

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Part is a fragment of message content.
type Part struct {
	Text string `json:"text,omitempty"`
}

// Content is a role-tagged list of parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerationConfig carries sampling parameters.
type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

// GenerateContentRequest is the body of a generateContent call.
type GenerateContentRequest struct {
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Contents          []Content         `json:"contents"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

// UsageMetadata reports token accounting.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// PromptFeedback is set when the prompt itself was blocked.
type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// GenerateContentResponse is the body returned by generateContent.
type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	UsageMetadata  *UsageMetadata  `json:"usageMetadata,omitempty"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`

	// RawBody is the undecoded response, kept for diagnostics.
	RawBody []byte `json:"-"`
}

// Texts returns the text parts of the first candidate.
func (r *GenerateContentResponse) Texts() []string {
	if len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return nil
	}
	var out []string
	for _, p := range r.Candidates[0].Content.Parts {
		if p.Text != "" {
			out = append(out, p.Text)
		}
	}
	return out
}

// APIError is the error envelope returned by the Generative Language API.
// Its message always includes the HTTP code and the status string so that
// callers matching on "429" or "RESOURCE_EXHAUSTED" see both.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini status %d %s: %s", e.Code, e.Status, strings.TrimSpace(e.Message))
}

// Retryable reports whether the same request may succeed if sent again.
func (e *APIError) Retryable() bool {
	return e.Code == 408 || e.Code >= 500
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

// parseError decodes an error body; it falls back to the raw body when the
// envelope is missing.
func parseError(statusCode int, body []byte) *APIError {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		if env.Error.Code == 0 {
			env.Error.Code = statusCode
		}
		return env.Error
	}
	return &APIError{Code: statusCode, Message: strings.TrimSpace(string(body))}
}
