package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
	"github.com/bryanwahyu/heartnote/internal/infra/ai/prompt"
	"github.com/bryanwahyu/heartnote/internal/middleware"
)

const (
	msgEmptyText      = "输入文本不能为空"
	msgAnalysisFailed = "分析失败，请稍后重试"
)

type analyzeRequest struct {
	Text string `json:"text"`
	// Fallback asks for the keyword analyzer when the model call fails.
	Fallback bool `json:"fallback"`
}

type analyzeResponse struct {
	Result   emotion.View `json:"result"`
	Fallback bool         `json:"fallback,omitempty"`
	// Error is the model failure that the fallback result replaces.
	Error *errorBody `json:"error,omitempty"`
}

// POST /v1/analyze
// Body: {"text": "...", "fallback": false}
// With Accept: text/event-stream the progress statuses are streamed before the result.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body analyzeRequest
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	if err := middleware.ValidateText(body.Text); err != nil {
		return badRequest{msg: err.Error()}
	}
	text := middleware.SanitizeString(body.Text)

	if strings.Contains(req.Header.Get("Accept"), "text/event-stream") {
		return r.streamAnalyze(w, req, text, body.Fallback)
	}
	resp, err := r.analyze(req.Context(), text, body.Fallback, nil)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, resp)
}

func (r *Router) analyze(ctx context.Context, text string, fallback bool, onProgress func(string)) (analyzeResponse, error) {
	if !r.llmEnabled() {
		if text == "" {
			return analyzeResponse{}, emotion.ErrEmptyInput
		}
		r.metrics.Fallback()
		return analyzeResponse{Result: emotion.NewView(prompt.AnalyzeKeywords(text)), Fallback: true}, nil
	}

	result, err := r.analysis.Analyze(ctx, text, onProgress)
	r.metrics.AnalysisDone(err)
	if err == nil {
		return analyzeResponse{Result: emotion.NewView(result)}, nil
	}
	if !fallback || errors.Is(err, emotion.ErrEmptyInput) {
		return analyzeResponse{}, err
	}

	r.log.Warn("analysis failed, serving keyword fallback", zap.String("kind", emotion.KindOf(err)), zap.Error(err))
	r.metrics.Fallback()
	_, body := errorResponse(err)
	return analyzeResponse{
		Result:   emotion.NewView(prompt.AnalyzeKeywords(text)),
		Fallback: true,
		Error:    &body,
	}, nil
}

func (r *Router) streamAnalyze(w http.ResponseWriter, req *http.Request, text string, fallback bool) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return errors.New("streaming unsupported")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	events := &eventWriter{w: w, flusher: flusher}
	resp, err := r.analyze(req.Context(), text, fallback, func(status string) {
		events.send("progress", map[string]string{"status": status})
	})
	if err != nil {
		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			r.log.Error("streamed analysis failed", zap.String("kind", body.Kind), zap.Error(err))
		}
		events.send("error", errorEnvelope{Error: body})
		return nil
	}
	events.send("result", resp)
	return nil
}

// eventWriter writes server-sent events. Progress ticks and the final event come from different
// goroutines, so writes are serialised.
type eventWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

func (e *eventWriter) send(event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", event, data)
	e.flusher.Flush()
}

// invocationRequest is what function and proxy clients post.
type invocationRequest struct {
	Text string `json:"text"`
	// Model is accepted for compatibility; the host always uses its own upstream model.
	Model json.RawMessage `json:"model,omitempty"`
}

type invocationResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// POST /functions/{name}
func (r *Router) handleFunction(w http.ResponseWriter, req *http.Request) error {
	if chi.URLParam(req, "name") != r.functionName() {
		http.NotFound(w, req)
		return nil
	}
	return r.invoke(w, req)
}

// POST /api/emotion-analysis
func (r *Router) handleProxy(w http.ResponseWriter, req *http.Request) error {
	return r.invoke(w, req)
}

// invoke runs the analysis against the upstream provider and answers in the envelope the
// function and proxy transports expect. Failures are reported in-band with HTTP 200.
func (r *Router) invoke(w http.ResponseWriter, req *http.Request) error {
	var body invocationRequest
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	if err := middleware.ValidateText(body.Text); err != nil {
		return writeJSON(w, http.StatusOK, invocationResponse{Error: err.Error()})
	}
	text := middleware.SanitizeString(body.Text)
	if text == "" {
		return writeJSON(w, http.StatusOK, invocationResponse{Error: msgEmptyText})
	}

	result, err := r.upstream.Analyze(req.Context(), text, nil)
	r.metrics.AnalysisDone(err)
	if err != nil {
		r.log.Error("upstream analysis failed",
			zap.String("path", req.URL.Path),
			zap.String("kind", emotion.KindOf(err)),
			zap.Error(err),
		)
		return writeJSON(w, http.StatusOK, invocationResponse{Error: msgAnalysisFailed})
	}
	return writeJSON(w, http.StatusOK, invocationResponse{Success: true, Data: emotion.Wire(result)})
}
