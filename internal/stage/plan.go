package stage

import (
	"context"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/domain"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/prompt"
)

// GenerateActionPlan turns the purpose and failure reason into concrete next steps.
func GenerateActionPlan(ctx context.Context, deps Deps, state *domain.PipelineState, settings Settings) (domain.StateDelta, error) {
	reason := state.FailureReason()
	evidence := reason.Evidence
	if evidence == nil {
		evidence = []string{}
	}
	data := prompt.ActionPlanData{
		Purpose:        state.Label(),
		PurposeSummary: state.Summary(),
		ReasonCategory: reason.ReasonCategory,
		Explanation:    reason.Explanation,
		Recommendation: reason.Recommendation,
		Evidence:       evidence,
	}
	obj, model, err := ask(ctx, deps, prompt.StageActionPlan, data, settings,
		domain.PreferredCandidates(state.ModelUsed, settings.Candidates))
	if err != nil {
		return domain.StateDelta{}, err
	}
	steps, err := obj.Strings("steps", []string{})
	if err != nil {
		attribute(err, model)
		return domain.StateDelta{}, err
	}

	return domain.StateDelta{
		ActionPlanResult: &domain.ActionPlanResult{
			Goal:            obj.String("goal", ""),
			Steps:           steps,
			Owner:           obj.String("owner", ""),
			SuccessCriteria: obj.String("success_criteria", ""),
		},
		ModelUsed: ptr(model),
	}, nil
}
