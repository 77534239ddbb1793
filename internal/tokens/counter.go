// Package tokens counts conversation tokens and enforces the per-request budget.
package tokens

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/domain"
)

// Counter counts tokens in plain text.
type Counter interface {
	CountText(text string) (int, error)
}

// TiktokenCounter counts tokens with a tiktoken encoding. Gemini does not
// publish its tokenizer; cl100k_base is a close enough proxy for budgeting.
type TiktokenCounter struct {
	codec tokenizer.Codec
}

// NewTiktokenCounter loads the given encoding.
func NewTiktokenCounter(encoding tokenizer.Encoding) (*TiktokenCounter, error) {
	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer encoding: %w", err)
	}
	return &TiktokenCounter{codec: codec}, nil
}

// CountText counts tokens for a plain text string.
func (c *TiktokenCounter) CountText(text string) (int, error) {
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Estimator provides token count estimation based on character count.
// This is a fallback when no encoding can be loaded.
type Estimator struct {
	// CharsPerToken is the average characters per token (default: 4)
	CharsPerToken float64
}

// NewEstimator creates a new token estimator.
func NewEstimator() *Estimator {
	return &Estimator{CharsPerToken: 4.0}
}

// CountText estimates the token count.
func (e *Estimator) CountText(text string) (int, error) {
	return int(float64(len(text)) / e.CharsPerToken), nil
}

// NewDefaultCounter returns a cl100k_base counter, or the estimator when the
// encoding cannot be loaded.
func NewDefaultCounter() Counter {
	c, err := NewTiktokenCounter(tokenizer.Cl100kBase)
	if err != nil {
		return NewEstimator()
	}
	return c
}

// Budget rejects conversations above a token limit. A non-positive Max
// disables the check but still counts.
type Budget struct {
	Counter Counter
	Max     int
}

// Check counts text and returns a too-large error when it exceeds the limit.
func (b Budget) Check(text string) (int, error) {
	n, err := b.Counter.CountText(text)
	if err != nil {
		return 0, fmt.Errorf("count tokens: %w", err)
	}
	if b.Max > 0 && n > b.Max {
		return n, domain.ErrTooLarge(fmt.Sprintf("conversation is %d tokens, limit is %d", n, b.Max))
	}
	return n, nil
}
