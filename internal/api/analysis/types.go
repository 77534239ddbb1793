// Package analysis serves the call analysis HTTP API.
package analysis

import (
	"strings"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/domain"
)

// ConversationRequest is the body of POST /api/analyze.
type ConversationRequest struct {
	Conversation []domain.Message `json:"conversation"`
}

// CallLogRequest is the body of POST /api/analyze-call. Only CallID and
// Conversation influence the analysis; the other fields are accepted for
// compatibility with exported call logs.
type CallLogRequest struct {
	CallID          *string          `json:"call_id,omitempty"`
	Date            *string          `json:"date,omitempty"`
	DurationSeconds *int             `json:"duration_seconds,omitempty"`
	Participants    []string         `json:"participants,omitempty"`
	Conversation    []domain.Message `json:"conversation"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status               string   `json:"status"`
	GeminiConfigured     bool     `json:"gemini_configured"`
	GeminiModel          string   `json:"gemini_model"`
	GeminiModels         []string `json:"gemini_models"`
	GeminiTimeoutSeconds int      `json:"gemini_timeout_seconds"`
	GeminiMaxRetries     int      `json:"gemini_max_retries"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string   `json:"detail"`
	Errors []string `json:"errors,omitempty"`
}

// FlattenConversation renders messages as "role: content" lines in order.
func FlattenConversation(messages []domain.Message) string {
	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = m.Role + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}
