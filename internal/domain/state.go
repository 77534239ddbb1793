package domain

import "strings"

// PipelineState is threaded through the analysis stages of a single run.
// Result fields stay nil until the stage that produces them has executed.
// A state value is owned by exactly one run and is never shared.
type PipelineState struct {
	ConversationText string
	CallID           *string

	PurposeResult       *PurposeResult
	PurposeSummary      *string
	PurposeLabel        *string
	FailureReasonResult *FailureReasonResult
	ActionPlanResult    *ActionPlanResult

	// ModelUsed is the most recent model that answered successfully.
	// Empty until the first stage completes.
	ModelUsed string
}

// NewPipelineState seeds a state for a new run.
func NewPipelineState(conversationText string, callID *string) *PipelineState {
	return &PipelineState{
		ConversationText: conversationText,
		CallID:           callID,
	}
}

// StateDelta holds the fields a stage sets. Nil fields leave the state untouched.
type StateDelta struct {
	PurposeResult       *PurposeResult
	PurposeSummary      *string
	PurposeLabel        *string
	FailureReasonResult *FailureReasonResult
	ActionPlanResult    *ActionPlanResult
	ModelUsed           *string
}

// Apply merges a delta into the state, overwriting same-named fields.
func (s *PipelineState) Apply(d StateDelta) {
	if d.PurposeResult != nil {
		s.PurposeResult = d.PurposeResult
	}
	if d.PurposeSummary != nil {
		s.PurposeSummary = d.PurposeSummary
	}
	if d.PurposeLabel != nil {
		s.PurposeLabel = d.PurposeLabel
	}
	if d.FailureReasonResult != nil {
		s.FailureReasonResult = d.FailureReasonResult
	}
	if d.ActionPlanResult != nil {
		s.ActionPlanResult = d.ActionPlanResult
	}
	if d.ModelUsed != nil {
		s.ModelUsed = *d.ModelUsed
	}
}

// Label returns the classified purpose, or "other" before classification.
func (s *PipelineState) Label() string {
	if s.PurposeLabel == nil {
		return PurposeOther
	}
	return *s.PurposeLabel
}

// Summary returns the purpose summary, or "" before classification.
func (s *PipelineState) Summary() string {
	if s.PurposeSummary == nil {
		return ""
	}
	return *s.PurposeSummary
}

// FailureReason returns the diagnosed failure reason, or an empty record
// with the "other" category when diagnosis has not run.
func (s *PipelineState) FailureReason() FailureReasonResult {
	if s.FailureReasonResult == nil {
		return FailureReasonResult{ReasonCategory: ReasonOther, Evidence: []string{}}
	}
	return *s.FailureReasonResult
}

// Complete reports whether every stage result has been populated.
func (s *PipelineState) Complete() bool {
	return s.PurposeResult != nil && s.FailureReasonResult != nil && s.ActionPlanResult != nil
}

// Result builds the externally visible analysis. It must only be called
// on a complete state.
func (s *PipelineState) Result() *AnalysisResult {
	return &AnalysisResult{
		Purpose:       *s.PurposeResult,
		FailureReason: *s.FailureReasonResult,
		ActionPlan:    *s.ActionPlanResult,
		CallID:        s.CallID,
	}
}

// DedupeCandidates trims model identifiers and drops blanks and repeats,
// keeping the first occurrence of each.
func DedupeCandidates(models []string) []string {
	out := make([]string, 0, len(models))
	seen := make(map[string]struct{}, len(models))
	for _, m := range models {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// PreferredCandidates puts the previously successful model first, followed
// by the configured candidates, without duplicates.
func PreferredCandidates(preferred string, configured []string) []string {
	if preferred == "" {
		return DedupeCandidates(configured)
	}
	return DedupeCandidates(append([]string{preferred}, configured...))
}
