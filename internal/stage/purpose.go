package stage

import (
	"context"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/domain"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/prompt"
)

// ClassifyPurpose asks the configured candidates, in order, what the caller
// was trying to achieve.
func ClassifyPurpose(ctx context.Context, deps Deps, state *domain.PipelineState, settings Settings) (domain.StateDelta, error) {
	obj, model, err := ask(ctx, deps, prompt.StagePurpose,
		prompt.PurposeData{ConversationText: state.ConversationText},
		settings, settings.Candidates)
	if err != nil {
		return domain.StateDelta{}, err
	}

	result := &domain.PurposeResult{
		Purpose:    obj.String("purpose", domain.PurposeOther),
		Confidence: obj.String("confidence", domain.ConfidenceMedium),
		Summary:    obj.String("summary", ""),
	}
	return domain.StateDelta{
		PurposeResult:  result,
		PurposeSummary: ptr(result.Summary),
		PurposeLabel:   ptr(result.Purpose),
		ModelUsed:      ptr(model),
	}, nil
}
