package httpapi

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/orgball2608/insta-post-analyzer/internal/analyzer"
	"github.com/orgball2608/insta-post-analyzer/internal/domain"
	"github.com/orgball2608/insta-post-analyzer/internal/ratelimit"
	"github.com/orgball2608/insta-post-analyzer/internal/repositories/lastresult"
	"github.com/orgball2608/insta-post-analyzer/pkg/errors"
	"github.com/orgball2608/insta-post-analyzer/pkg/logger"
	"go.uber.org/fx"
)

// SessionHeader carries the id that scopes GET /analysis/last
const SessionHeader = "X-Session-ID"

const (
	codeRateLimited = "RATE_LIMITED"
	codeInternal    = "INTERNAL"
	maxBodyBytes    = 1 << 16
)

type analyzeRequest struct {
	URL string `json:"url" validate:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type HandlerOpts struct {
	fx.In

	Analyzer analyzer.Client
	Store    lastresult.Store
	Limiter  ratelimit.Limiter
	Logger   logger.Logger
}

type Handler struct {
	analyzer analyzer.Client
	store    lastresult.Store
	limiter  ratelimit.Limiter
	validate *validator.Validate
	logger   logger.Logger
}

func NewHandler(opts HandlerOpts) *Handler {
	return &Handler{
		analyzer: opts.Analyzer,
		store:    opts.Store,
		limiter:  opts.Limiter,
		validate: validator.New(),
		logger:   opts.Logger.WithComponent("HTTPAPI"),
	}
}

// AnalyzePost handles POST /analysis/instagram
func (h *Handler) AnalyzePost(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionFrom(r)
	w.Header().Set(SessionHeader, sessionID)

	var req analyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, errors.WithField(errors.CodeInvalidInput, "body", "request body must be a JSON object", err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, errors.WithField(errors.CodeInvalidInput, "url", "url is required", nil))
		return
	}

	if h.limiter != nil && !h.limiter.Allow(clientKey(r, sessionID)) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error: "too many analysis requests, try again later",
			Code:  codeRateLimited,
		})
		return
	}

	ctx := analyzer.WithSource(r.Context(), domain.SourceHTTP)
	result, err := h.analyzer.Analyze(ctx, req.URL)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.store.Put(r.Context(), sessionID, result); err != nil {
		// the caller still gets the result; only /analysis/last is affected
		h.logger.Error("Failed to store last result", "session", sessionID, "error", err)
	}

	writeJSON(w, http.StatusOK, result)
}

// GetPost handles GET /analysis/post?url=
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("url")
	if strings.TrimSpace(input) == "" {
		h.writeError(w, errors.WithField(errors.CodeInvalidInput, "url", "url query parameter is required", nil))
		return
	}

	ctx := analyzer.WithSource(r.Context(), domain.SourceHTTP)
	post, err := h.analyzer.FetchPost(ctx, input)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// GetLast handles GET /analysis/last
func (h *Handler) GetLast(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		h.writeError(w, errors.WithField(errors.CodeNotFound, SessionHeader, "no analysis for this session", nil))
		return
	}

	result, err := h.store.Get(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = codeInternal
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "code", code, "error", err)
	} else {
		h.logger.Debug("Request rejected", "code", code, "field", errors.GetField(err))
	}

	writeJSON(w, status, errorResponse{Error: publicMessage(err, status), Code: code})
}

// StatusFor maps an error onto the HTTP status returned to clients
func StatusFor(err error) int {
	switch {
	case errors.IsInvalidInput(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage never leaks wrapped causes of server-side failures
func publicMessage(err error, status int) string {
	var e *errors.Error
	if !errors.As(err, &e) {
		return "internal error"
	}
	if status >= http.StatusInternalServerError {
		return e.Message
	}
	if field := errors.GetField(err); field != "" {
		return e.Message + " (field " + field + ")"
	}
	return e.Message
}

func sessionFrom(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id
	}
	return uuid.NewString()
}

func clientKey(r *http.Request, sessionID string) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return "ip:" + host
	}
	if r.RemoteAddr != "" {
		return "ip:" + r.RemoteAddr
	}
	return "session:" + sessionID
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
