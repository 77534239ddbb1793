// Package storage retains operator diagnostics: malformed model output and
// candidate failures observed while serving analyses. Analysis results
// themselves are never stored.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a diagnostic record.
type Kind string

const (
	// KindMalformedResponse is model output that did not decode to a JSON object.
	KindMalformedResponse Kind = "malformed_response"
	// KindCandidateFailed is a single failed model candidate attempt.
	KindCandidateFailed Kind = "candidate_failed"
	// KindStageFailed is a stage that aborted its run.
	KindStageFailed Kind = "stage_failed"
)

// Diagnostic is one retained failure record.
type Diagnostic struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id,omitempty"`
	CallID    string    `json:"call_id,omitempty"`
	Stage     string    `json:"stage"`
	Model     string    `json:"model,omitempty"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Raw       string    `json:"raw,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ListOptions filters diagnostic listings. Results are newest first.
type ListOptions struct {
	Limit int
	Kind  Kind
}

// DiagnosticStore persists diagnostics. Implementations must be safe for
// concurrent use.
type DiagnosticStore interface {
	Record(ctx context.Context, d *Diagnostic) error
	List(ctx context.Context, opts ListOptions) ([]*Diagnostic, error)
	Close() error
}

// Prepare fills in the ID and timestamp of a record about to be stored.
func Prepare(d *Diagnostic) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
}

// Nop discards every record.
type Nop struct{}

func (Nop) Record(context.Context, *Diagnostic) error { return nil }

func (Nop) List(context.Context, ListOptions) ([]*Diagnostic, error) {
	return []*Diagnostic{}, nil
}

func (Nop) Close() error { return nil }
