package tokens

import (
	"errors"
	"strings"
	"testing"

	"github.com/tiktoken-go/tokenizer"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/domain"
)

func TestTiktokenCounter_CountText(t *testing.T) {
	c, err := NewTiktokenCounter(tokenizer.Cl100kBase)
	if err != nil {
		t.Fatalf("NewTiktokenCounter() error = %v", err)
	}

	tests := []struct {
		name      string
		text      string
		minTokens int
		maxTokens int
	}{
		{"empty", "", 0, 0},
		{"short line", "user: I need to book an appointment", 5, 15},
		{"transcript", strings.Repeat("agent: Please hold while I check.\n", 20), 100, 250},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := c.CountText(tt.text)
			if err != nil {
				t.Fatalf("CountText() error = %v", err)
			}
			if n < tt.minTokens || n > tt.maxTokens {
				t.Errorf("CountText() = %d, want between %d and %d", n, tt.minTokens, tt.maxTokens)
			}
		})
	}
}

func TestEstimator_CountText(t *testing.T) {
	n, _ := NewEstimator().CountText(strings.Repeat("a", 40))
	if n != 10 {
		t.Errorf("CountText() = %d, want 10", n)
	}
}

func TestBudget_Check(t *testing.T) {
	b := Budget{Counter: NewEstimator(), Max: 5}

	if n, err := b.Check("12345678"); err != nil || n != 2 {
		t.Errorf("Check(under) = %d, %v", n, err)
	}

	n, err := b.Check(strings.Repeat("x", 40))
	if n != 10 {
		t.Errorf("Check(over) count = %d, want 10", n)
	}
	var reqErr *domain.RequestError
	if !errors.As(err, &reqErr) || reqErr.Type != domain.ErrorTypeTooLarge {
		t.Fatalf("Check(over) error = %v, want too-large request error", err)
	}
	if domain.TypeOf(err).HTTPStatus() != 413 {
		t.Errorf("status = %d, want 413", domain.TypeOf(err).HTTPStatus())
	}
}

func TestBudget_Unlimited(t *testing.T) {
	b := Budget{Counter: NewEstimator()}
	if _, err := b.Check(strings.Repeat("x", 100000)); err != nil {
		t.Errorf("Check() with no limit error = %v", err)
	}
}
