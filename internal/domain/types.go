package domain

// Purpose labels the model is asked to choose from.
const (
	PurposeBooking    = "booking"
	PurposeSell       = "sell"
	PurposeConsultant = "consultant"
	PurposeSupport    = "support"
	PurposeComplaint  = "complaint"
	PurposeOther      = "other"
)

// Confidence levels for a purpose classification.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Failure reason categories.
const (
	ReasonSystemFailure     = "system_failure"
	ReasonProcessLimitation = "process_limitation"
	ReasonWaitTime          = "wait_time"
	ReasonMiscommunication  = "miscommunication"
	ReasonIncompleteInfo    = "incomplete_info"
	ReasonOther             = "other"
)

// Message is a single turn of a call conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PurposeResult is the output of the purpose classification stage.
type PurposeResult struct {
	Purpose    string `json:"purpose"`
	Confidence string `json:"confidence"`
	Summary    string `json:"summary"`
}

// FailureReasonResult explains why the call purpose was not achieved.
type FailureReasonResult struct {
	ReasonCategory string   `json:"reason_category"`
	Explanation    string   `json:"explanation"`
	Evidence       []string `json:"evidence"`
	Recommendation string   `json:"recommendation"`
}

// ActionPlanResult is an ordered plan to resolve the failed call outcome.
type ActionPlanResult struct {
	Goal            string   `json:"goal"`
	Steps           []string `json:"steps"`
	Owner           string   `json:"owner"`
	SuccessCriteria string   `json:"success_criteria"`
}

// AnalysisResult is the full analysis returned for one call.
// CallID marshals as null when the caller did not supply one.
type AnalysisResult struct {
	Purpose       PurposeResult       `json:"purpose"`
	FailureReason FailureReasonResult `json:"failure_reason"`
	ActionPlan    ActionPlanResult    `json:"action_plan"`
	CallID        *string             `json:"call_id"`
}

// ModelMessage is one message sent to a text-generation model.
type ModelMessage struct {
	Role    string
	Content string
}

// Message roles understood by model backends.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ModelUsage reports token accounting from the model backend, when available.
type ModelUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ModelResponse is a completed, non-streaming model generation.
type ModelResponse struct {
	// Content holds the generated text parts. Empty when the backend
	// returned no structured content.
	Content []string
	// Raw is the undecoded response body.
	Raw          []byte
	Model        string
	FinishReason string
	Usage        ModelUsage
}

// HasContent reports whether the response carries structured text content.
func (r *ModelResponse) HasContent() bool {
	return r != nil && len(r.Content) > 0
}
