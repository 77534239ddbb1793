package pipeline

import (
	"context"
	"log/slog"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/domain"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/provider"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/storage"
)

type runInfoKey struct{}

// runInfo identifies the run and stage a model call belongs to.
type runInfo struct {
	RequestID string
	CallID    string
	Stage     string
}

func withRunInfo(ctx context.Context, info runInfo) context.Context {
	return context.WithValue(ctx, runInfoKey{}, info)
}

func runInfoFrom(ctx context.Context) runInfo {
	info, _ := ctx.Value(runInfoKey{}).(runInfo)
	return info
}

// CandidateRecorder returns an invoker hook that stores every failed
// candidate attempt, tagged with the run and stage it happened in.
func CandidateRecorder(store storage.DiagnosticStore, logger *slog.Logger) provider.AttemptHook {
	if store == nil {
		store = storage.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, attempt domain.CandidateAttempt) {
		info := runInfoFrom(ctx)
		d := &storage.Diagnostic{
			RequestID: info.RequestID,
			CallID:    info.CallID,
			Stage:     info.Stage,
			Model:     attempt.Model,
			Kind:      storage.KindCandidateFailed,
			Message:   domain.Summarize(attempt.Err),
		}
		if attempt.Reason != "" {
			d.Message = attempt.Reason + ": " + d.Message
		}
		if err := store.Record(context.WithoutCancel(ctx), d); err != nil {
			logger.Error("failed to record diagnostic", slog.String("error", err.Error()))
		}
	}
}
