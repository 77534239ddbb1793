package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/api/analysis"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/config"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/pipeline"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/provider"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/stage"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/storage"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/storage/memory"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/storage/sqlite"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/telemetry"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/tokens"
)

// newModelFactory is replaced in tests.
var newModelFactory = func(cfg *config.Config) provider.ModelFactory {
	return provider.NewGeminiFactory(cfg.Gemini.BaseURL, nil)
}

// app holds everything a command needs to run analyses.
type app struct {
	cfg            *config.Config
	logger         *slog.Logger
	store          storage.DiagnosticStore
	analyzer       *pipeline.Analyzer
	shutdownTracer func(context.Context) error
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// newApp loads configuration and wires the store, invoker and pipeline.
// Logs and exported spans go to logOut.
func newApp(logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(logOut, cfg.Log.Level)
	slog.SetDefault(logger)

	shutdown, err := telemetry.InitTracer(cfg.Tracing.Enabled, logOut, logger)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	store, err := openStore(cfg.Diagnostics)
	if err != nil {
		_ = shutdown(context.Background())
		return nil, err
	}

	invoker := provider.NewInvoker(newModelFactory(cfg),
		provider.WithLogger(logger),
		provider.WithAttemptHook(pipeline.CandidateRecorder(store, logger)),
	)

	analyzer := pipeline.New(pipeline.Config{
		Invoker: invoker,
		Settings: stage.Settings{
			APIKey:     cfg.Gemini.APIKey,
			Candidates: cfg.Candidates(),
			Timeout:    cfg.Timeout(),
			MaxRetries: cfg.Gemini.MaxRetries,
		},
		Budget: &tokens.Budget{
			Counter: tokens.NewDefaultCounter(),
			Max:     cfg.Limits.MaxConversationTokens,
		},
		Store:  store,
		Logger: logger,
	})

	if !cfg.Configured() {
		logger.Warn("GOOGLE_API_KEY is not set; analysis requests will fail")
	}

	return &app{
		cfg:            cfg,
		logger:         logger,
		store:          store,
		analyzer:       analyzer,
		shutdownTracer: shutdown,
	}, nil
}

func openStore(cfg config.DiagnosticsConfig) (storage.DiagnosticStore, error) {
	switch cfg.Store {
	case "sqlite":
		store, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open diagnostics store: %w", err)
		}
		return store, nil
	case "none":
		return storage.Nop{}, nil
	default:
		return memory.New(cfg.Capacity), nil
	}
}

func (a *app) serviceInfo() analysis.ServiceInfo {
	return analysis.ServiceInfo{
		Configured:     a.cfg.Configured(),
		Models:         a.cfg.Candidates(),
		TimeoutSeconds: a.cfg.Gemini.TimeoutSeconds,
		MaxRetries:     a.cfg.Gemini.MaxRetries,
	}
}

func (a *app) Close() {
	if err := a.shutdownTracer(context.Background()); err != nil {
		a.logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close diagnostics store", slog.String("error", err.Error()))
	}
}
