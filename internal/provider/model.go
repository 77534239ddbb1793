// Package provider invokes text-generation models with ordered candidate
// fallback.
package provider

import (
	"context"
	"time"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/domain"
)

// ChatModel is a client bound to one model identifier.
type ChatModel interface {
	Generate(ctx context.Context, messages []domain.ModelMessage) (*domain.ModelResponse, error)
}

// ModelConfig is everything needed to bind a client to a candidate.
type ModelConfig struct {
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// ModelFactory builds a ChatModel for one candidate. A factory error is
// classified like any other candidate failure.
type ModelFactory func(cfg ModelConfig) (ChatModel, error)
