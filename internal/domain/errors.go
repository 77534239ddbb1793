// Package domain provides the analysis records, pipeline state, and canonical
// error types shared by every layer of the analyzer.
package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// ErrorType represents the category of an analysis failure.
type ErrorType string

const (
	// ErrorTypeConfiguration indicates the service is missing required settings.
	ErrorTypeConfiguration ErrorType = "configuration"

	// ErrorTypeInvalidRequest indicates a malformed or invalid request body.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"

	// ErrorTypeTooLarge indicates the conversation exceeds the token budget.
	ErrorTypeTooLarge ErrorType = "too_large"

	// ErrorTypeUpstream indicates the model backend failed or answered badly.
	ErrorTypeUpstream ErrorType = "upstream"
)

// HTTPStatus returns the HTTP status code for an error type.
func (t ErrorType) HTTPStatus() int {
	switch t {
	case ErrorTypeConfiguration:
		return http.StatusServiceUnavailable
	case ErrorTypeInvalidRequest:
		return http.StatusUnprocessableEntity
	case ErrorTypeTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadGateway
	}
}

// ConfigurationError is returned when the pipeline cannot run with the
// settings it was given, for example an empty model candidate list.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}

// ErrNoCandidates is the ConfigurationError for an empty candidate list.
var ErrNoCandidates = &ConfigurationError{Message: "no model candidates configured"}

// TransientModelError marks a model failure that is safe to retry against a
// different candidate. It never leaves the invoker on its own.
type TransientModelError struct {
	Model  string
	Reason string
	Err    error
}

func (e *TransientModelError) Error() string {
	return fmt.Sprintf("model %s unavailable (%s): %v", e.Model, e.Reason, e.Err)
}

func (e *TransientModelError) Unwrap() error { return e.Err }

// CandidateAttempt records one failed candidate inside a fallback loop.
type CandidateAttempt struct {
	Model  string
	Reason string
	Err    error
}

// AllCandidatesFailedError is returned when every candidate failed with a
// transient error. It wraps the last error encountered.
type AllCandidatesFailedError struct {
	Attempts []CandidateAttempt
	Last     error
}

func (e *AllCandidatesFailedError) Error() string {
	return fmt.Sprintf("all model candidates failed: %v", e.Last)
}

func (e *AllCandidatesFailedError) Unwrap() error { return e.Last }

// Models lists the candidates that were attempted, in order.
func (e *AllCandidatesFailedError) Models() []string {
	models := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		models[i] = a.Model
	}
	return models
}

// MalformedResponseError is returned when model output is not a JSON object
// after fence stripping. Raw keeps the full text for diagnostics only.
// Model is set once the response has been attributed to a candidate.
type MalformedResponseError struct {
	Raw   string
	Model string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("model response is not a valid JSON object: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Excerpt returns at most n bytes of the raw response.
func (e *MalformedResponseError) Excerpt(n int) string {
	return Truncate(e.Raw, n)
}

// RequestError is a caller-side problem detected before the pipeline runs.
type RequestError struct {
	Type    ErrorType
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// ErrInvalidRequest creates an invalid request error.
func ErrInvalidRequest(message string) *RequestError {
	return &RequestError{Type: ErrorTypeInvalidRequest, Message: message}
}

// ErrTooLarge creates a token budget error.
func ErrTooLarge(message string) *RequestError {
	return &RequestError{Type: ErrorTypeTooLarge, Message: message}
}

// TypeOf maps any error produced while serving an analysis to its category.
func TypeOf(err error) ErrorType {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return ErrorTypeConfiguration
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Type
	}
	return ErrorTypeUpstream
}

const maxSummaryLen = 320

// QuotaMessage is shown to callers when the model provider rejected the
// request for quota or rate-limit reasons.
const QuotaMessage = "Model quota/rate limit exceeded. Retry later or use another API key/project."

// Summarize renders an error for callers: quota failures get an actionable
// message, everything else is flattened to one line and length-capped.
func Summarize(err error) string {
	if err == nil {
		return ""
	}
	text := strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(err.Error()))
	if IsQuotaText(text) {
		return QuotaMessage
	}
	return Truncate(text, maxSummaryLen)
}

// IsQuotaText reports whether an error text carries a quota or rate-limit marker.
func IsQuotaText(text string) bool {
	return strings.Contains(text, "RESOURCE_EXHAUSTED") || strings.Contains(text, "429")
}

// Truncate caps s at n bytes on a rune boundary, appending "..." when it was cut.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
