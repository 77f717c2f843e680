package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/laya1n/Haseef-sub000/internal/domain"
	"github.com/laya1n/Haseef-sub000/internal/domain/record"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/filter"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/suggest"
	"github.com/laya1n/Haseef-sub000/internal/logger"
	assistantuc "github.com/laya1n/Haseef-sub000/internal/usecase/assistant"
	healthuc "github.com/laya1n/Haseef-sub000/internal/usecase/health"
)

// utf8BOM lets spreadsheet tools detect UTF-8 in exported CSV.
const utf8BOM = "\ufeff"

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Options tunes request handling.
type Options struct {
	MaxUploadBytes int64
	// RecentDays is the window of period=last_week.
	RecentDays int
}

// Server serves the record and assistant HTTP API.
type Server struct {
	records       RecordService
	assistant     AssistantService
	health        HealthService
	opts          Options
	logger        *zap.Logger
	now           func() time.Time
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	records RecordService,
	assistant AssistantService,
	health HealthService,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.RecentDays <= 0 {
		opts.RecentDays = 7
	}
	s := &Server{
		records:   records,
		assistant: assistant,
		health:    health,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnknownKind, http.StatusNotFound, ErrorCodeUnknownKind),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrBatchNotLoaded, http.StatusServiceUnavailable, ErrorCodeBatchNotLoaded),
		fieldErrorHandler,
		sentinelHandler(domain.ErrInvalidBatch, http.StatusBadRequest, ErrorCodeInvalidBatch),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeBadRequest),
		sentinelHandler(domain.ErrBatchTooLarge, http.StatusRequestEntityTooLarge, ErrorCodeBatchTooLarge),
		sentinelHandler(domain.ErrAssistantQuotaExceeded, http.StatusTooManyRequests, ErrorCodeQuotaExceeded),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorCodeRateLimited),
		sentinelHandler(domain.ErrAssistantProviderError, http.StatusBadGateway, ErrorCodeProviderError),
		sentinelHandler(domain.ErrAssistantDisabled, http.StatusNotImplemented, ErrorCodeAssistantDisabled),
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/records", s.ListBatches)
		r.Route("/records/{kind}", func(r chi.Router) {
			r.Use(kindLogger)
			r.Get("/", s.QueryRecords)
			r.Put("/", s.ReplaceRecords)
			r.Get("/summary", s.SummarizeRecords)
			r.Get("/alerts", s.ListAlerts)
			r.Get("/suggest", s.SuggestRecords)
			r.Get("/export", s.ExportRecords)
			r.Get("/uploads", s.ListUploads)
			r.Get("/uploads/{batch_id}", s.GetUpload)
		})
		r.Post("/assistant/chat", s.Chat)
	})
}

// kindLogger tags the request logger with the record kind of the route.
func kindLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.With(r.Context(), zap.String("kind", chi.URLParam(r, "kind")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ListBatches handles GET /records.
func (s *Server) ListBatches(w http.ResponseWriter, r *http.Request) {
	metas, err := s.records.Batches(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]BatchResponse, len(metas))
	for i, m := range metas {
		items[i] = batchToResponse(m)
	}
	writeJSON(w, http.StatusOK, BatchListResponse{Items: items})
}

// QueryRecords handles GET /records/{kind}.
func (s *Server) QueryRecords(w http.ResponseWriter, r *http.Request) {
	kind, state, ok := s.filterRequest(w, r)
	if !ok {
		return
	}
	page, err := bindPageParams(r.URL.Query())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	offset := deref(page.Offset)
	res, err := s.records.Query(r.Context(), kind, state, offset, deref(page.Limit))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("X-Batch-ID", res.Batch.ID)
	writeJSON(w, http.StatusOK, QueryResponse{
		Batch:      batchToResponse(res.Batch),
		Total:      res.Total,
		Offset:     offset,
		Items:      res.Records,
		Summary:    res.Summary,
		DidYouMean: res.DidYouMean,
	})
}

// SummarizeRecords handles GET /records/{kind}/summary.
func (s *Server) SummarizeRecords(w http.ResponseWriter, r *http.Request) {
	kind, state, ok := s.filterRequest(w, r)
	if !ok {
		return
	}

	sum, err := s.records.Summary(r.Context(), kind, state)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// ListAlerts handles GET /records/{kind}/alerts.
func (s *Server) ListAlerts(w http.ResponseWriter, r *http.Request) {
	kind, state, ok := s.filterRequest(w, r)
	if !ok {
		return
	}
	page, err := bindPageParams(r.URL.Query())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	offset := deref(page.Offset)
	res, err := s.records.Alerts(r.Context(), kind, state, offset, deref(page.Limit))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("X-Batch-ID", res.Batch.ID)
	writeJSON(w, http.StatusOK, AlertsResponse{
		Batch:  batchToResponse(res.Batch),
		Total:  res.Counts.Total,
		Offset: offset,
		Counts: res.Counts,
		Items:  res.Records,
	})
}

// ExportRecords handles GET /records/{kind}/export.
func (s *Server) ExportRecords(w http.ResponseWriter, r *http.Request) {
	kind, state, ok := s.filterRequest(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	n, err := s.records.Export(r.Context(), kind, state, &buf)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, kind))
	w.Header().Set("X-Total-Count", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// SuggestRecords handles GET /records/{kind}/suggest.
// A query with no candidates gets a did-you-mean correction when one is close enough.
func (s *Server) SuggestRecords(w http.ResponseWriter, r *http.Request) {
	kind, err := bindKind(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	params, err := bindSuggestParams(r.URL.Query())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	q := deref(params.Q)
	items, err := s.records.Suggest(r.Context(), kind, q, deref(params.Limit))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []suggest.Candidate{}
	}

	resp := SuggestResponse{Items: items}
	if len(items) == 0 {
		c, found, err := s.records.DidYouMean(r.Context(), kind, q)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		if found {
			resp.DidYouMean = &c
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ReplaceRecords handles PUT /records/{kind}.
// The body is a JSON array, a JSON object with a "records" array, or CSV (text/csv).
func (s *Server) ReplaceRecords(w http.ResponseWriter, r *http.Request) {
	kind, err := bindKind(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	format, err := uploadFormat(r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, http.StatusUnsupportedMediaType, ErrorCodeInvalidBatch, err.Error())
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("%w: limit %d bytes", domain.ErrBatchTooLarge, tooLarge.Limit)
		} else {
			err = fmt.Errorf("%w: read body: %w", domain.ErrInvalidRequest, err)
		}
		s.handleDomainError(w, r, err)
		return
	}

	meta, err := s.records.Replace(r.Context(), kind, format, raw)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("X-Batch-ID", meta.ID)
	writeJSON(w, http.StatusOK, batchToResponse(meta))
}

// ListUploads handles GET /records/{kind}/uploads.
func (s *Server) ListUploads(w http.ResponseWriter, r *http.Request) {
	kind, err := bindKind(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ups, err := s.records.Uploads(r.Context(), kind)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]UploadResponse, len(ups))
	for i, u := range ups {
		items[i] = uploadToResponse(u)
	}
	writeJSON(w, http.StatusOK, UploadListResponse{Items: items})
}

// GetUpload handles GET /records/{kind}/uploads/{batch_id} and returns the raw payload.
func (s *Server) GetUpload(w http.ResponseWriter, r *http.Request) {
	kind, err := bindKind(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	var batchID string
	err = runtime.BindStyledParameterWithOptions("simple", "batch_id", chi.URLParam(r, "batch_id"), &batchID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter batch_id: "+err.Error())
		return
	}

	up, raw, err := s.records.Upload(r.Context(), kind, batchID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	contentType := "application/json"
	if up.Format == record.FormatCSV {
		contentType = "text/csv; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.%s"`, kind, up.BatchID, up.Format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// Chat handles POST /assistant/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	in, err := s.chatRequestFromWire(req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	reply, err := s.assistant.Chat(ctx, in)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setTokenHeaders(w, usage)

	resp := ChatResponse{
		Message: ChatMessage{Role: domain.RoleAssistant, Content: reply.Content},
		Usage: ChatUsage{
			PromptTokens:     reply.PromptTokens,
			CompletionTokens: reply.CompletionTokens,
			TotalTokens:      reply.TotalTokens,
		},
	}
	if in.Context != nil {
		resp.ContextRecords = &reply.ContextRecords
		resp.ContextTotal = &reply.ContextTotal
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health. Degraded still answers 200.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// filterRequest binds the kind and filter parameters shared by query, summary and export.
// On failure the error response is already written.
func (s *Server) filterRequest(w http.ResponseWriter, r *http.Request) (record.Kind, filter.State, bool) {
	kind, err := bindKind(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return "", filter.State{}, false
	}
	schema, err := s.records.Schema(kind)
	if err != nil {
		s.handleDomainError(w, r, err)
		return "", filter.State{}, false
	}
	params, err := bindFilterParams(r.URL.Query(), schema)
	if err != nil {
		s.handleDomainError(w, r, err)
		return "", filter.State{}, false
	}
	state, err := params.State(schema, s.now(), s.opts.RecentDays)
	if err != nil {
		s.handleDomainError(w, r, err)
		return "", filter.State{}, false
	}
	return kind, state, true
}

func (s *Server) chatRequestFromWire(req ChatRequest) (assistantuc.ChatRequest, error) {
	msgs := make([]domain.Message, len(req.Messages))
	for i, m := range req.Messages {
		if m.Role == domain.RoleSystem {
			return assistantuc.ChatRequest{}, fmt.Errorf("%w: message %d: system role is reserved", domain.ErrInvalidRequest, i)
		}
		msgs[i] = domain.Message{Role: m.Role, Content: m.Content}
	}
	out := assistantuc.ChatRequest{Messages: msgs}
	if req.Context == nil {
		return out, nil
	}

	kind := record.Kind(req.Context.Kind)
	schema, err := s.records.Schema(kind)
	if err != nil {
		return assistantuc.ChatRequest{}, err
	}
	params, err := filtersFromMap(req.Context.Filters, schema)
	if err != nil {
		return assistantuc.ChatRequest{}, err
	}
	state, err := params.State(schema, s.now(), s.opts.RecentDays)
	if err != nil {
		return assistantuc.ChatRequest{}, err
	}
	out.Context = &assistantuc.RecordContext{Kind: kind, State: state}
	return out, nil
}

// uploadFormat maps a request content type to a batch format. An empty type means JSON.
func uploadFormat(contentType string) (string, error) {
	if contentType == "" {
		return record.FormatJSON, nil
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("invalid content type %q", contentType)
	}
	switch mt {
	case "application/json":
		return record.FormatJSON, nil
	case "text/csv", "application/csv":
		return record.FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported content type %q", mt)
	}
}

func setTokenHeaders(w http.ResponseWriter, usage *domain.TokenUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Assistant-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnknownKind,
		domain.ErrNotFound,
		domain.ErrBatchNotLoaded,
		domain.ErrInvalidBatch,
		domain.ErrInvalidRequest,
		domain.ErrBatchTooLarge,
		domain.ErrAssistantQuotaExceeded,
		domain.ErrRateLimited,
		domain.ErrAssistantProviderError,
		domain.ErrAssistantDisabled,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// fieldErrorHandler reports the offending filter parameter, which is safe to echo.
func fieldErrorHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrInvalidFilter) {
		return false
	}
	msg := domain.ErrInvalidFilter.Error()
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		msg = fe.Error()
	}
	writeError(w, http.StatusBadRequest, ErrorCodeInvalidFilter, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
