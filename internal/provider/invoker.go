package provider

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/domain"
)

const tracerName = "github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/provider"

// Request is one system+user exchange to run against ordered candidates.
type Request struct {
	System     string
	User       string
	APIKey     string
	Candidates []string
	Timeout    time.Duration
	MaxRetries int
}

// AttemptHook observes candidate failures, transient or fatal.
type AttemptHook func(ctx context.Context, attempt domain.CandidateAttempt)

// Option configures an Invoker.
type Option func(*Invoker)

// WithLogger sets the invoker logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Invoker) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithAttemptHook registers a callback for failed candidate attempts.
func WithAttemptHook(hook AttemptHook) Option {
	return func(i *Invoker) {
		i.hook = hook
	}
}

// Invoker tries model candidates in order and returns the first success.
// It keeps no state between calls and is safe for concurrent use.
type Invoker struct {
	factory ModelFactory
	logger  *slog.Logger
	tracer  trace.Tracer
	hook    AttemptHook
}

// NewInvoker creates an invoker that builds candidate clients with factory.
func NewInvoker(factory ModelFactory, opts ...Option) *Invoker {
	i := &Invoker{
		factory: factory,
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Invoke runs the request against each candidate in order. It returns the
// response and the identifier of the candidate that produced it.
//
// A failure whose message matches TransientMarkers moves on to the next
// candidate; any other failure is returned unchanged without trying further
// candidates. When every candidate fails transiently the result is a
// *domain.AllCandidatesFailedError wrapping the last error.
func (i *Invoker) Invoke(ctx context.Context, req Request) (*domain.ModelResponse, string, error) {
	if len(req.Candidates) == 0 {
		return nil, "", domain.ErrNoCandidates
	}

	ctx, span := i.tracer.Start(ctx, "model.invoke",
		trace.WithAttributes(attribute.StringSlice("model.candidates", req.Candidates)))
	defer span.End()

	messages := []domain.ModelMessage{
		{Role: domain.RoleSystem, Content: req.System},
		{Role: domain.RoleUser, Content: req.User},
	}

	var (
		attempts []domain.CandidateAttempt
		lastErr  error
	)
	for _, model := range req.Candidates {
		start := time.Now()
		resp, err := i.call(ctx, model, req, messages)
		if err == nil {
			span.SetAttributes(
				attribute.String("model.used", model),
				attribute.Int("model.failed_attempts", len(attempts)),
			)
			i.logger.Debug("model call succeeded",
				slog.String("model", model),
				slog.Duration("duration", time.Since(start)),
				slog.Int("total_tokens", resp.Usage.TotalTokens))
			return resp, model, nil
		}

		class := Classify(err)
		attempt := domain.CandidateAttempt{Model: model, Reason: class.Reason, Err: err}
		if i.hook != nil {
			i.hook(ctx, attempt)
		}
		span.AddEvent("candidate.failed", trace.WithAttributes(
			attribute.String("model", model),
			attribute.String("disposition", class.Disposition.String()),
			attribute.String("reason", class.Reason),
		))

		if class.Disposition == Fatal {
			i.logger.Warn("model call failed, not falling back",
				slog.String("model", model),
				slog.String("error", err.Error()))
			span.RecordError(err)
			span.SetStatus(codes.Error, "fatal model error")
			return nil, "", err
		}

		i.logger.Info("model candidate unavailable, trying next",
			slog.String("model", model),
			slog.String("reason", class.Reason),
			slog.String("error", err.Error()))
		attempts = append(attempts, attempt)
		lastErr = &domain.TransientModelError{Model: model, Reason: class.Reason, Err: err}
	}

	failed := &domain.AllCandidatesFailedError{Attempts: attempts, Last: lastErr}
	span.RecordError(failed)
	span.SetStatus(codes.Error, "all candidates failed")
	return nil, "", failed
}

func (i *Invoker) call(ctx context.Context, model string, req Request, messages []domain.ModelMessage) (*domain.ModelResponse, error) {
	client, err := i.factory(ModelConfig{
		APIKey:     req.APIKey,
		Model:      model,
		Timeout:    req.Timeout,
		MaxRetries: req.MaxRetries,
	})
	if err != nil {
		return nil, err
	}
	return client.Generate(ctx, messages)
}
