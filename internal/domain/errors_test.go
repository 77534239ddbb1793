package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "newlines flattened", err: errors.New("line one\nline two\r\nthree\n"), want: "line one line two three"},
		{name: "quota status", err: errors.New("gemini status 429 RESOURCE_EXHAUSTED: quota"), want: QuotaMessage},
		{name: "quota marker only", err: errors.New("RESOURCE_EXHAUSTED"), want: QuotaMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.err))
		})
	}
}

func TestSummarize_Truncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := Summarize(errors.New(long))
	assert.Equal(t, strings.Repeat("x", 320)+"...", got)
}

func TestTruncate_RuneBoundary(t *testing.T) {
	// "é" is two bytes; cutting at 1 must not split it.
	assert.Equal(t, "...", Truncate("é", 1))
	assert.Equal(t, "ab", Truncate("ab", 2))
	assert.Equal(t, "ab...", Truncate("abc", 2))
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   ErrorType
		status int
	}{
		{name: "configuration", err: ErrNoCandidates, want: ErrorTypeConfiguration, status: http.StatusServiceUnavailable},
		{name: "wrapped configuration", err: fmt.Errorf("stage purpose: %w", ErrNoCandidates), want: ErrorTypeConfiguration, status: http.StatusServiceUnavailable},
		{name: "invalid request", err: ErrInvalidRequest("bad"), want: ErrorTypeInvalidRequest, status: http.StatusUnprocessableEntity},
		{name: "too large", err: ErrTooLarge("big"), want: ErrorTypeTooLarge, status: http.StatusRequestEntityTooLarge},
		{name: "all failed", err: &AllCandidatesFailedError{Last: errors.New("404")}, want: ErrorTypeUpstream, status: http.StatusBadGateway},
		{name: "malformed", err: &MalformedResponseError{Raw: "nope", Err: errors.New("bad json")}, want: ErrorTypeUpstream, status: http.StatusBadGateway},
		{name: "other", err: errors.New("boom"), want: ErrorTypeUpstream, status: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TypeOf(tt.err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.status, got.HTTPStatus())
		})
	}
}

func TestAllCandidatesFailedError(t *testing.T) {
	last := errors.New("status 404 NOT_FOUND")
	err := &AllCandidatesFailedError{
		Attempts: []CandidateAttempt{{Model: "a", Err: errors.New("429")}, {Model: "b", Err: last}},
		Last:     last,
	}

	assert.ErrorIs(t, err, last)
	assert.Equal(t, []string{"a", "b"}, err.Models())
	assert.Contains(t, err.Error(), "NOT_FOUND")
}
