package stage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/domain"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/prompt"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/provider"
)

type reply struct {
	resp  *domain.ModelResponse
	model string
	err   error
}

// mockInvoker returns queued replies and records every request.
type mockInvoker struct {
	replies []reply
	got     []provider.Request
}

func (m *mockInvoker) Invoke(_ context.Context, req provider.Request) (*domain.ModelResponse, string, error) {
	m.got = append(m.got, req)
	if len(m.replies) == 0 {
		return nil, "", errors.New("no reply queued")
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	return r.resp, r.model, r.err
}

func (m *mockInvoker) text(model, text string) *mockInvoker {
	m.replies = append(m.replies, reply{resp: &domain.ModelResponse{Content: []string{text}}, model: model})
	return m
}

func deps(inv Invoker) Deps {
	return Deps{Invoker: inv, Catalog: prompt.Default()}
}

var testSettings = Settings{
	APIKey:     "key",
	Candidates: []string{"m1", "m2", "m3"},
	Timeout:    5e9,
	MaxRetries: 1,
}

func TestClassifyPurpose(t *testing.T) {
	inv := (&mockInvoker{}).text("m1", "```json\n{\"purpose\": \"booking\", \"confidence\": \"high\", \"summary\": \"wants a slot\"}\n```")
	state := domain.NewPipelineState("user: I need an appointment", nil)

	delta, err := ClassifyPurpose(context.Background(), deps(inv), state, testSettings)
	require.NoError(t, err)

	require.NotNil(t, delta.PurposeResult)
	assert.Equal(t, domain.PurposeResult{Purpose: "booking", Confidence: "high", Summary: "wants a slot"}, *delta.PurposeResult)
	assert.Equal(t, "booking", *delta.PurposeLabel)
	assert.Equal(t, "wants a slot", *delta.PurposeSummary)
	assert.Equal(t, "m1", *delta.ModelUsed)
	assert.Nil(t, delta.FailureReasonResult)

	require.Len(t, inv.got, 1)
	req := inv.got[0]
	assert.Equal(t, []string{"m1", "m2", "m3"}, req.Candidates)
	assert.Equal(t, "key", req.APIKey)
	assert.Equal(t, 1, req.MaxRetries)
	assert.Contains(t, req.System, "PRIMARY PURPOSE")
	assert.Contains(t, req.User, "user: I need an appointment")
}

func TestClassifyPurpose_Defaults(t *testing.T) {
	inv := (&mockInvoker{}).text("m2", `{}`)
	delta, err := ClassifyPurpose(context.Background(), deps(inv), domain.NewPipelineState("x", nil), testSettings)
	require.NoError(t, err)

	assert.Equal(t, domain.PurposeResult{Purpose: "other", Confidence: "medium", Summary: ""}, *delta.PurposeResult)
	assert.Equal(t, "other", *delta.PurposeLabel)
	assert.Equal(t, "", *delta.PurposeSummary)
}

func TestClassifyPurpose_RawFallback(t *testing.T) {
	inv := &mockInvoker{replies: []reply{{
		resp:  &domain.ModelResponse{Raw: []byte(`{"purpose":"support"}`)},
		model: "m1",
	}}}
	delta, err := ClassifyPurpose(context.Background(), deps(inv), domain.NewPipelineState("x", nil), testSettings)
	require.NoError(t, err)
	assert.Equal(t, "support", delta.PurposeResult.Purpose)
}

func TestClassifyPurpose_JoinsTextParts(t *testing.T) {
	inv := &mockInvoker{replies: []reply{{
		resp:  &domain.ModelResponse{Content: []string{`{"purpose":`, `"sell"}`}},
		model: "m1",
	}}}
	delta, err := ClassifyPurpose(context.Background(), deps(inv), domain.NewPipelineState("x", nil), testSettings)
	require.NoError(t, err)
	assert.Equal(t, "sell", delta.PurposeResult.Purpose)
}

func TestClassifyPurpose_Malformed(t *testing.T) {
	inv := (&mockInvoker{}).text("m3", "Sure! The purpose is booking.")
	_, err := ClassifyPurpose(context.Background(), deps(inv), domain.NewPipelineState("x", nil), testSettings)

	var malformed *domain.MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "m3", malformed.Model)
	assert.Equal(t, "Sure! The purpose is booking.", malformed.Raw)
}

func TestClassifyPurpose_InvokerError(t *testing.T) {
	cause := &domain.AllCandidatesFailedError{Last: errors.New("429")}
	inv := &mockInvoker{replies: []reply{{err: cause}}}
	_, err := ClassifyPurpose(context.Background(), deps(inv), domain.NewPipelineState("x", nil), testSettings)
	assert.ErrorIs(t, err, cause)
}

func TestDiagnoseFailureReason_PrefersLastModel(t *testing.T) {
	inv := (&mockInvoker{}).text("m2", `{"reason_category":"wait_time","explanation":"no consultant","evidence":["please hold"],"recommendation":"add staff"}`)
	state := domain.NewPipelineState("agent: please hold", nil)
	state.Apply(domain.StateDelta{
		PurposeLabel:   ptr("consultant"),
		PurposeSummary: ptr("needs advice"),
		ModelUsed:      ptr("m2"),
	})

	delta, err := DiagnoseFailureReason(context.Background(), deps(inv), state, testSettings)
	require.NoError(t, err)

	assert.Equal(t, domain.FailureReasonResult{
		ReasonCategory: "wait_time",
		Explanation:    "no consultant",
		Evidence:       []string{"please hold"},
		Recommendation: "add staff",
	}, *delta.FailureReasonResult)
	assert.Equal(t, "m2", *delta.ModelUsed)

	req := inv.got[0]
	assert.Equal(t, []string{"m2", "m1", "m3"}, req.Candidates)
	assert.Contains(t, req.User, "Call purpose: consultant")
	assert.Contains(t, req.User, "Summary: needs advice")
	assert.Contains(t, req.User, "agent: please hold")
}

func TestDiagnoseFailureReason_DefaultsWithoutPurpose(t *testing.T) {
	inv := (&mockInvoker{}).text("m1", `{"explanation": null}`)
	state := domain.NewPipelineState("x", nil)

	delta, err := DiagnoseFailureReason(context.Background(), deps(inv), state, testSettings)
	require.NoError(t, err)

	assert.Equal(t, domain.FailureReasonResult{ReasonCategory: "other", Evidence: []string{}}, *delta.FailureReasonResult)
	assert.Equal(t, []string{"m1", "m2", "m3"}, inv.got[0].Candidates)
	assert.Contains(t, inv.got[0].User, "Call purpose: other")
}

func TestGenerateActionPlan(t *testing.T) {
	inv := (&mockInvoker{}).text("m1", `{"goal":"Rebook","steps":["Call back","Offer slot"],"owner":"front desk","success_criteria":"booked"}`)
	state := domain.NewPipelineState("x", nil)
	state.Apply(domain.StateDelta{
		PurposeLabel:   ptr("booking"),
		PurposeSummary: ptr("wants a slot"),
		FailureReasonResult: &domain.FailureReasonResult{
			ReasonCategory: "system_failure",
			Explanation:    "calendar down",
			Evidence:       []string{"system is down"},
			Recommendation: "fallback sheet",
		},
		ModelUsed: ptr("m1"),
	})

	delta, err := GenerateActionPlan(context.Background(), deps(inv), state, testSettings)
	require.NoError(t, err)

	assert.Equal(t, domain.ActionPlanResult{
		Goal:            "Rebook",
		Steps:           []string{"Call back", "Offer slot"},
		Owner:           "front desk",
		SuccessCriteria: "booked",
	}, *delta.ActionPlanResult)

	user := inv.got[0].User
	assert.Contains(t, user, "Failure reason: system_failure")
	assert.Contains(t, user, "Explanation: calendar down")
	assert.Contains(t, user, "Recommendation: fallback sheet")
	assert.Contains(t, user, `Evidence: ["system is down"]`)
	assert.Equal(t, []string{"m1", "m2", "m3"}, inv.got[0].Candidates)
}

func TestGenerateActionPlan_WithoutFailureReason(t *testing.T) {
	inv := (&mockInvoker{}).text("m1", `{"steps": "Call back"}`)
	delta, err := GenerateActionPlan(context.Background(), deps(inv), domain.NewPipelineState("x", nil), testSettings)
	require.NoError(t, err)

	assert.Equal(t, domain.ActionPlanResult{Steps: []string{"Call back"}}, *delta.ActionPlanResult)
	assert.Contains(t, inv.got[0].User, "Failure reason: other")
	assert.Contains(t, inv.got[0].User, "Evidence: []")
}

func TestStages_RejectNonStringLists(t *testing.T) {
	tests := []struct {
		name  string
		run   Handler
		model string
		text  string
	}{
		{"lone evidence string", DiagnoseFailureReason, "m2", `{"reason_category":"wait_time","evidence":"please hold"}`},
		{"numeric step", GenerateActionPlan, "m3", `{"goal":"Rebook","steps":["Call back",2]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := (&mockInvoker{}).text(tt.model, tt.text)
			delta, err := tt.run(context.Background(), deps(inv), domain.NewPipelineState("x", nil), testSettings)
			require.Error(t, err)
			assert.Nil(t, delta.FailureReasonResult)
			assert.Nil(t, delta.ActionPlanResult)

			var malformed *domain.MalformedResponseError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tt.model, malformed.Model)
			assert.Equal(t, tt.text, malformed.Raw)
		})
	}
}

func TestSteps_Order(t *testing.T) {
	names := make([]string, len(Steps))
	for i, s := range Steps {
		names[i] = s.Name
	}
	assert.Equal(t, []string{prompt.StagePurpose, prompt.StageFailureReason, prompt.StageActionPlan}, names)
}
