package stage

import (
	"context"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/domain"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/prompt"
)

// DiagnoseFailureReason explains why the classified purpose was not met.
// The model that answered the previous stage is tried first.
func DiagnoseFailureReason(ctx context.Context, deps Deps, state *domain.PipelineState, settings Settings) (domain.StateDelta, error) {
	data := prompt.FailureReasonData{
		Purpose:          state.Label(),
		Summary:          state.Summary(),
		ConversationText: state.ConversationText,
	}
	obj, model, err := ask(ctx, deps, prompt.StageFailureReason, data, settings,
		domain.PreferredCandidates(state.ModelUsed, settings.Candidates))
	if err != nil {
		return domain.StateDelta{}, err
	}
	evidence, err := obj.Strings("evidence", []string{})
	if err != nil {
		attribute(err, model)
		return domain.StateDelta{}, err
	}

	return domain.StateDelta{
		FailureReasonResult: &domain.FailureReasonResult{
			ReasonCategory: obj.String("reason_category", domain.ReasonOther),
			Explanation:    obj.String("explanation", ""),
			Evidence:       evidence,
			Recommendation: obj.String("recommendation", ""),
		},
		ModelUsed: ptr(model),
	}, nil
}
