package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/domain"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/pipeline"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/server"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/storage"
)

// Route paths.
const (
	PathRoot         = "/"
	PathHealth       = "/api/health"
	PathAnalyze      = "/api/analyze"
	PathAnalyzeCall  = "/api/analyze-call"
	PathDiagnostics  = "/api/diagnostics"
	serviceName      = "Call Failure Analyzer API"
	maxBodyBytes     = 1 << 20
	defaultDiagLimit = 50
	maxDiagLimit     = 500
	rawExcerptLen    = 2000
)

// Analyzer runs one analysis.
type Analyzer interface {
	Run(ctx context.Context, in pipeline.Input) (*domain.AnalysisResult, error)
}

// ServiceInfo is the configuration reported by the health endpoint.
type ServiceInfo struct {
	Configured     bool
	Models         []string
	TimeoutSeconds int
	MaxRetries     int
}

type Handler struct {
	analyzer Analyzer
	info     ServiceInfo
	store    storage.DiagnosticStore
	logger   *slog.Logger
}

func NewHandler(analyzer Analyzer, info ServiceInfo, store storage.DiagnosticStore, logger *slog.Logger) *Handler {
	if store == nil {
		store = storage.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{analyzer: analyzer, info: info, store: store, logger: logger}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get(PathRoot, h.handleRoot)
	r.Get(PathHealth, h.handleHealth)
	r.Post(PathAnalyze, h.handleAnalyze)
	r.Post(PathAnalyzeCall, h.handleAnalyzeCall)
	r.Get(PathDiagnostics, h.handleDiagnostics)
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	base := "http://" + r.Host
	writeJSON(w, http.StatusOK, map[string]string{
		"service":     serviceName,
		"health":      base + PathHealth,
		"analyze":     "POST " + PathAnalyze + " or POST " + PathAnalyzeCall,
		"diagnostics": "GET " + PathDiagnostics,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:               "ok",
		GeminiConfigured:     h.info.Configured,
		GeminiModels:         h.info.Models,
		GeminiTimeoutSeconds: h.info.TimeoutSeconds,
		GeminiMaxRetries:     h.info.MaxRetries,
	}
	if resp.GeminiModels == nil {
		resp.GeminiModels = []string{}
	}
	if len(h.info.Models) > 0 {
		resp.GeminiModel = h.info.Models[0]
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	req, err := DecodeConversation(body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.run(w, r, pipeline.Input{ConversationText: FlattenConversation(req.Conversation)})
}

func (h *Handler) handleAnalyzeCall(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	req, err := DecodeCallLog(body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if req.CallID != nil {
		server.AddLogField(r.Context(), server.FieldCallID, *req.CallID)
	}
	h.run(w, r, pipeline.Input{
		ConversationText: FlattenConversation(req.Conversation),
		CallID:           req.CallID,
	})
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request, in pipeline.Input) {
	in.RequestID = server.GetRequestID(r.Context())
	result, err := h.analyzer.Run(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	server.AddLogField(r.Context(), server.FieldPurpose, result.Purpose.Purpose)
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	opts := storage.ListOptions{Limit: defaultDiagLimit, Kind: storage.Kind(r.URL.Query().Get("kind"))}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Detail: "limit must be a positive integer"})
			return
		}
		opts.Limit = min(n, maxDiagLimit)
	}

	records, err := h.store.List(r.Context(), opts)
	if err != nil {
		server.AddError(r.Context(), err)
		h.logger.Error("failed to list diagnostics", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Detail: "Failed to list diagnostics."})
		return
	}
	if records == nil {
		records = []*storage.Diagnostic{}
	}
	for _, d := range records {
		d.Raw = domain.Truncate(d.Raw, rawExcerptLen)
	}
	writeJSON(w, http.StatusOK, map[string]any{"diagnostics": records})
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Detail: "Request body too large."})
			return nil, false
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "Failed to read request body."})
		return nil, false
	}
	return body, true
}

// fail maps an analysis error onto a status code and a caller-safe detail.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	server.AddError(r.Context(), err)

	status, resp := Describe(err)
	if status == http.StatusBadGateway {
		h.logger.Warn("analysis failed",
			slog.String("request_id", server.GetRequestID(r.Context())),
			slog.String("error", err.Error()))
	}
	writeJSON(w, status, resp)
}

// Describe returns the status code and body reported to callers for err.
// Model output and long upstream messages never appear verbatim.
func Describe(err error) (int, ErrorResponse) {
	typ := domain.TypeOf(err)
	resp := ErrorResponse{}
	switch typ {
	case domain.ErrorTypeConfiguration:
		var cfgErr *domain.ConfigurationError
		errors.As(err, &cfgErr)
		resp.Detail = cfgErr.Message
	case domain.ErrorTypeInvalidRequest:
		var verr *ValidationError
		if errors.As(err, &verr) {
			resp.Detail = verr.Detail
			resp.Errors = verr.Violations
		} else {
			resp.Detail = err.Error()
		}
	case domain.ErrorTypeTooLarge:
		resp.Detail = err.Error()
	default:
		resp.Detail = "Analysis failed. " + domain.Summarize(err)
	}
	return typ.HTTPStatus(), resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
