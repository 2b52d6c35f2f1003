package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/bryanwahyu/heartnote/internal/application/analysis"
	apphistory "github.com/bryanwahyu/heartnote/internal/application/history"
	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
	"github.com/bryanwahyu/heartnote/internal/domain/history"
	"github.com/bryanwahyu/heartnote/internal/middleware"
)

// maxBodyBytes caps request bodies; diary entries are short.
const maxBodyBytes = 64 << 10

// Deps is everything the router serves. Upstream may be nil, which disables the function and
// proxy host routes. Store may be nil when the backend has no health check.
type Deps struct {
	Analysis       *analysis.Service
	Upstream       *analysis.Service
	History        *apphistory.Service
	Store          middleware.HealthChecker
	Metrics        *middleware.Metrics
	Limiter        *middleware.RateLimiter
	Log            *zap.Logger
	AllowedOrigins []string
	FunctionName   func() string
	LLMEnabled     func() bool
}

type Router struct {
	analysis     *analysis.Service
	upstream     *analysis.Service
	history      *apphistory.Service
	metrics      *middleware.Metrics
	log          *zap.Logger
	functionName func() string
	llmEnabled   func() bool
}

func NewRouter(d Deps) http.Handler {
	r := &Router{
		analysis:     d.Analysis,
		upstream:     d.Upstream,
		history:      d.History,
		metrics:      d.Metrics,
		log:          d.Log,
		functionName: d.FunctionName,
		llmEnabled:   d.LLMEnabled,
	}
	if r.metrics == nil {
		r.metrics = middleware.NewMetrics()
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if r.functionName == nil {
		r.functionName = func() string { return "" }
	}
	if r.llmEnabled == nil {
		r.llmEnabled = func() bool { return true }
	}
	limit := func(h http.Handler) http.Handler { return h }
	if d.Limiter != nil {
		limit = d.Limiter.Middleware
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Logging(r.log))
	mux.Use(r.metrics.Middleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization", "X-Request-Id"},
		MaxAge:         300,
	}))

	checks := map[string]middleware.HealthChecker{}
	if d.Store != nil {
		checks["store"] = d.Store
	}
	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/healthz", middleware.HealthHandler(checks))
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Get("/metrics", r.metrics.Handler)

	mux.With(limit).Post("/v1/analyze", r.wrap(r.handleAnalyze))
	if r.upstream != nil {
		mux.With(limit).Post("/functions/{name}", r.wrap(r.handleFunction))
		mux.With(limit).Post("/api/emotion-analysis", r.wrap(r.handleProxy))
	}

	mux.Route("/v1/users/{user}", func(rt chi.Router) {
		rt.Use(validUser)
		rt.Get("/history", r.wrap(r.handleHistoryList))
		rt.Post("/history", r.wrap(r.handleHistoryCommit))
		rt.Delete("/history", r.wrap(r.handleHistoryClear))
		rt.Get("/history/{id}", r.wrap(r.handleHistoryGet))
		rt.Patch("/history/{id}", r.wrap(r.handleHistoryPatch))
		rt.Delete("/history/{id}", r.wrap(r.handleHistoryDelete))
		rt.Get("/stats", r.wrap(r.handleStats))
		rt.Get("/trend", r.wrap(r.handleTrend))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status, body := errorResponse(err)
			if status >= http.StatusInternalServerError {
				r.log.Error("request failed",
					zap.String("request_id", chimw.GetReqID(req.Context())),
					zap.String("path", req.URL.Path),
					zap.String("kind", body.Kind),
					zap.Error(err),
				)
			}
			_ = writeJSON(w, status, errorEnvelope{Error: body})
		}
	}
}

// badRequest marks errors caused by the request itself.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return badRequest{msg: fmt.Sprintf(format, args...)}
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Host    string `json:"host,omitempty"`
	Status  int    `json:"status,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// errorResponse maps an error onto an HTTP status and the JSON error body. Upstream failures are
// gateway errors; the kind tells the client which one.
func errorResponse(err error) (int, errorBody) {
	body := errorBody{Kind: emotion.KindOf(err), Message: err.Error()}
	var te *emotion.TransportError
	if errors.As(err, &te) {
		body.Host = te.Host
		body.Status = te.StatusCode
	}

	var br badRequest
	switch {
	case errors.As(err, &br):
		body.Kind = "bad_request"
		return http.StatusBadRequest, body
	case errors.Is(err, emotion.ErrEmptyInput):
		return http.StatusBadRequest, body
	case errors.Is(err, history.ErrRecordNotFound):
		body.Kind = "not_found"
		return http.StatusNotFound, body
	case errors.Is(err, history.ErrNotEmotionIssue):
		body.Kind = "not_emotion_issue"
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, history.ErrCapacityExceeded):
		body.Kind = "capacity_exceeded"
		return http.StatusInsufficientStorage, body
	case errors.Is(err, context.DeadlineExceeded):
		body.Kind = "timeout"
		return http.StatusGatewayTimeout, body
	case errors.Is(err, emotion.ErrNetwork):
		return http.StatusServiceUnavailable, body
	case errors.Is(err, emotion.ErrAuth),
		errors.Is(err, emotion.ErrDomainNotAllowed),
		errors.Is(err, emotion.ErrFunctionMissing),
		errors.Is(err, emotion.ErrHTTPStatus),
		errors.Is(err, emotion.ErrRemoteFailure),
		errors.Is(err, emotion.ErrSchema):
		return http.StatusBadGateway, body
	default:
		body.Kind = "internal"
		return http.StatusInternalServerError, body
	}
}

func decodeJSON(req *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(req.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return badRequestf("invalid JSON body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func validUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if err := middleware.ValidateUserID(chi.URLParam(req, "user")); err != nil {
			_ = writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorBody{Kind: "bad_request", Message: err.Error()}})
			return
		}
		next.ServeHTTP(w, req)
	})
}
