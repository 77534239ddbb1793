package prompt

// PurposeData parameterizes the purpose classification prompt.
type PurposeData struct {
	ConversationText string
}

// FailureReasonData parameterizes the failure diagnosis prompt.
type FailureReasonData struct {
	Purpose          string
	Summary          string
	ConversationText string
}

// ActionPlanData parameterizes the action plan prompt.
type ActionPlanData struct {
	Purpose        string
	PurposeSummary string
	ReasonCategory string
	Explanation    string
	Recommendation string
	Evidence       []string
}
