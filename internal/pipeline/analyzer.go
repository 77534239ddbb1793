package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/domain"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/prompt"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/stage"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/storage"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/tokens"
)

const tracerName = "github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/pipeline"

// MissingAPIKeyMessage is reported when no model API key is configured.
const MissingAPIKeyMessage = "GOOGLE_API_KEY not set. Add it to .env or environment."

// Config wires an Analyzer.
type Config struct {
	Invoker  stage.Invoker
	Catalog  *prompt.Catalog
	Settings stage.Settings
	// Budget is optional. When set, conversations are counted and rejected
	// before any model call if they exceed Budget.Max.
	Budget *tokens.Budget
	Store  storage.DiagnosticStore
	Logger *slog.Logger
}

// Input is one conversation to analyze.
type Input struct {
	ConversationText string
	CallID           *string
	// RequestID correlates diagnostics with the inbound request, if any.
	RequestID string
}

// Analyzer runs the three analysis stages. It holds no per-run state and is
// safe for concurrent use.
type Analyzer struct {
	deps     stage.Deps
	settings stage.Settings
	steps    []stage.Step
	budget   *tokens.Budget
	store    storage.DiagnosticStore
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New creates an analyzer from configuration.
func New(cfg Config) *Analyzer {
	a := &Analyzer{
		deps:     stage.Deps{Invoker: cfg.Invoker, Catalog: cfg.Catalog},
		settings: cfg.Settings,
		steps:    stage.Steps,
		budget:   cfg.Budget,
		store:    cfg.Store,
		logger:   cfg.Logger,
		tracer:   otel.Tracer(tracerName),
	}
	if a.deps.Catalog == nil {
		a.deps.Catalog = prompt.Default()
	}
	if a.store == nil {
		a.store = storage.Nop{}
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Settings returns the model settings every run uses.
func (a *Analyzer) Settings() stage.Settings {
	return a.settings
}

// Run analyzes one conversation. On success every field of the result is
// populated and CallID is passed through unchanged.
func (a *Analyzer) Run(ctx context.Context, in Input) (*domain.AnalysisResult, error) {
	if a.settings.APIKey == "" {
		return nil, &domain.ConfigurationError{Message: MissingAPIKeyMessage}
	}
	if len(a.settings.Candidates) == 0 {
		return nil, domain.ErrNoCandidates
	}

	ctx, span := a.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	info := runInfo{RequestID: in.RequestID}
	if in.CallID != nil {
		info.CallID = *in.CallID
		span.SetAttributes(attribute.String("call.id", info.CallID))
	}
	logger := a.logger.With(slog.String("request_id", info.RequestID), slog.String("call_id", info.CallID))

	if a.budget != nil {
		n, err := a.budget.Check(in.ConversationText)
		span.SetAttributes(attribute.Int("conversation.tokens", n))
		if err != nil {
			span.SetStatus(codes.Error, "over token budget")
			return nil, err
		}
		logger.Debug("conversation counted", slog.Int("tokens", n))
	}

	start := time.Now()
	state := domain.NewPipelineState(in.ConversationText, in.CallID)
	for _, step := range a.steps {
		info.Stage = step.Name
		if err := a.runStep(withRunInfo(ctx, info), step, state); err != nil {
			a.recordStageFailure(ctx, info, err, logger)
			err = fmt.Errorf("stage %s: %w", step.Name, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "stage failed")
			return nil, err
		}
	}

	if !state.Complete() {
		return nil, errors.New("pipeline finished without all stage results")
	}

	logger.Info("analysis complete",
		slog.String("purpose", state.Label()),
		slog.String("reason_category", state.FailureReason().ReasonCategory),
		slog.String("model", state.ModelUsed),
		slog.Duration("duration", time.Since(start)))
	return state.Result(), nil
}

func (a *Analyzer) runStep(ctx context.Context, step stage.Step, state *domain.PipelineState) error {
	ctx, span := a.tracer.Start(ctx, "stage."+step.Name)
	defer span.End()

	delta, err := step.Run(ctx, a.deps, state, a.settings)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	state.Apply(delta)
	span.SetAttributes(attribute.String("model.used", state.ModelUsed))
	return nil
}

func (a *Analyzer) recordStageFailure(ctx context.Context, info runInfo, err error, logger *slog.Logger) {
	d := &storage.Diagnostic{
		RequestID: info.RequestID,
		CallID:    info.CallID,
		Stage:     info.Stage,
		Kind:      storage.KindStageFailed,
		Message:   domain.Summarize(err),
	}
	var malformed *domain.MalformedResponseError
	if errors.As(err, &malformed) {
		d.Kind = storage.KindMalformedResponse
		d.Model = malformed.Model
		d.Raw = malformed.Raw
	}

	logger.Warn("analysis stage failed",
		slog.String("stage", info.Stage),
		slog.String("kind", string(d.Kind)),
		slog.String("error", err.Error()))

	if recErr := a.store.Record(context.WithoutCancel(ctx), d); recErr != nil {
		logger.Error("failed to record diagnostic", slog.String("error", recErr.Error()))
	}
}
