package provider

import (
	"context"
	"net/http"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/backend/gemini"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/domain"
)

const defaultTemperature = 0.2

// GeminiModel adapts the Gemini REST client to ChatModel.
type GeminiModel struct {
	client *gemini.Client
	model  string
}

// NewGeminiFactory returns a ModelFactory backed by the Gemini API. baseURL
// and httpClient may be empty to use the client defaults.
func NewGeminiFactory(baseURL string, httpClient *http.Client) ModelFactory {
	return func(cfg ModelConfig) (ChatModel, error) {
		client := gemini.NewClient(cfg.APIKey,
			gemini.WithBaseURL(baseURL),
			gemini.WithHTTPClient(httpClient),
			gemini.WithTimeout(cfg.Timeout),
			gemini.WithMaxRetries(cfg.MaxRetries),
		)
		return &GeminiModel{client: client, model: cfg.Model}, nil
	}
}

// Generate sends the system message as the system instruction and every
// other message as a user turn.
func (m *GeminiModel) Generate(ctx context.Context, messages []domain.ModelMessage) (*domain.ModelResponse, error) {
	temp := defaultTemperature
	req := &gemini.GenerateContentRequest{
		GenerationConfig: &gemini.GenerationConfig{Temperature: &temp},
	}
	for _, msg := range messages {
		part := gemini.Part{Text: msg.Content}
		if msg.Role == domain.RoleSystem {
			if req.SystemInstruction == nil {
				req.SystemInstruction = &gemini.Content{}
			}
			req.SystemInstruction.Parts = append(req.SystemInstruction.Parts, part)
			continue
		}
		req.Contents = append(req.Contents, gemini.Content{Role: "user", Parts: []gemini.Part{part}})
	}

	resp, err := m.client.GenerateContent(ctx, m.model, req)
	if err != nil {
		return nil, err
	}

	// A candidate without text parts (safety stop, empty parts) is an empty
	// answer, not a missing one.
	content := resp.Texts()
	if len(content) == 0 {
		content = []string{""}
	}
	out := &domain.ModelResponse{
		Content: content,
		Raw:     resp.RawBody,
		Model:   m.model,
	}
	if len(resp.Candidates) > 0 {
		out.FinishReason = resp.Candidates[0].FinishReason
	}
	if resp.UsageMetadata != nil {
		out.Usage = domain.ModelUsage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}
	return out, nil
}
