// Package stage implements the three analysis stages. Each stage renders its
// prompt from the pipeline state, invokes the model candidates, decodes the
// JSON answer and returns the state fields it sets.
package stage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/codec"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/domain"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/prompt"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/provider"
)

// Invoker runs one prompt against ordered model candidates.
type Invoker interface {
	Invoke(ctx context.Context, req provider.Request) (*domain.ModelResponse, string, error)
}

// Deps are the collaborators shared by every stage.
type Deps struct {
	Invoker Invoker
	Catalog *prompt.Catalog
}

// Settings are the per-run model settings passed to every stage.
type Settings struct {
	APIKey     string
	Candidates []string
	Timeout    time.Duration
	MaxRetries int
}

// Handler is the signature shared by the stage functions.
type Handler func(ctx context.Context, deps Deps, state *domain.PipelineState, settings Settings) (domain.StateDelta, error)

// Step pairs a stage name with its handler.
type Step struct {
	Name string
	Run  Handler
}

// Steps lists the stages in execution order.
var Steps = []Step{
	{Name: prompt.StagePurpose, Run: ClassifyPurpose},
	{Name: prompt.StageFailureReason, Run: DiagnoseFailureReason},
	{Name: prompt.StageActionPlan, Run: GenerateActionPlan},
}

// ask renders the stage prompt, invokes the candidates and decodes the answer.
func ask(ctx context.Context, deps Deps, stage string, data any, settings Settings, candidates []string) (codec.Object, string, error) {
	system, user, err := deps.Catalog.Render(stage, data)
	if err != nil {
		return codec.Object{}, "", err
	}

	resp, model, err := deps.Invoker.Invoke(ctx, provider.Request{
		System:     system,
		User:       user,
		APIKey:     settings.APIKey,
		Candidates: candidates,
		Timeout:    settings.Timeout,
		MaxRetries: settings.MaxRetries,
	})
	if err != nil {
		return codec.Object{}, "", err
	}

	obj, err := codec.DecodeObject(responseText(resp))
	if err != nil {
		if malformed := attribute(err, model); malformed != nil && malformed.Raw == "" && resp != nil {
			malformed.Raw = string(resp.Raw)
		}
		return codec.Object{}, model, err
	}
	return obj, model, nil
}

// attribute records the answering model on a malformed response error.
func attribute(err error, model string) *domain.MalformedResponseError {
	var malformed *domain.MalformedResponseError
	if !errors.As(err, &malformed) {
		return nil
	}
	malformed.Model = model
	return malformed
}

// responseText prefers the structured text parts. The raw body is used only
// for backends that return no structured content at all.
func responseText(resp *domain.ModelResponse) string {
	if resp.HasContent() {
		return strings.Join(resp.Content, "")
	}
	if resp == nil {
		return ""
	}
	return string(resp.Raw)
}

func ptr[T any](v T) *T {
	return &v
}
