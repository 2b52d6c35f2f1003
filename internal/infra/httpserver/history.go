package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apphistory "github.com/bryanwahyu/heartnote/internal/application/history"
	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
	"github.com/bryanwahyu/heartnote/internal/domain/history"
	"github.com/bryanwahyu/heartnote/internal/middleware"
)

type listResponse struct {
	Records []history.Record `json:"records"`
	Total   int              `json:"total"`
}

// GET /v1/users/{user}/history?q=&limit=
func (r *Router) handleHistoryList(w http.ResponseWriter, req *http.Request) error {
	user := chi.URLParam(req, "user")
	q := req.URL.Query()

	records, err := r.history.List(req.Context(), user, q.Get("q"))
	if err != nil {
		return err
	}
	total := len(records)
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return badRequestf("invalid limit %q", raw)
		}
		if limit := middleware.ValidateLimit(n); len(records) > limit {
			records = records[:limit]
		}
	}
	return writeJSON(w, http.StatusOK, listResponse{Records: records, Total: total})
}

type commitRequest struct {
	Text             string          `json:"text"`
	Result           json.RawMessage `json:"result"`
	UserReasons      []string        `json:"userReasons"`
	CompletedActions []int           `json:"completedActions"`
	Timestamp        int64           `json:"timestamp"` // epoch ms, optional
}

// POST /v1/users/{user}/history
// Body: {"text": "...", "result": <result from /v1/analyze>, "userReasons": [], "completedActions": []}
func (r *Router) handleHistoryCommit(w http.ResponseWriter, req *http.Request) error {
	var body commitRequest
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	if err := middleware.ValidateText(body.Text); err != nil {
		return badRequest{msg: err.Error()}
	}
	result, err := parseResult(body.Result)
	if err != nil {
		return err
	}
	var at time.Time
	if body.Timestamp > 0 {
		at = time.UnixMilli(body.Timestamp)
	}

	rec, err := r.history.Commit(req.Context(), chi.URLParam(req, "user"), apphistory.CommitCommand{
		Text:             middleware.SanitizeString(body.Text),
		Result:           result,
		UserReasons:      body.UserReasons,
		CompletedActions: body.CompletedActions,
		Timestamp:        at,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, rec)
}

// parseResult accepts a result in the API's view shape and re-applies the normalizer's bounds.
func parseResult(raw json.RawMessage) (emotion.Result, error) {
	if len(raw) == 0 {
		return nil, badRequestf("result is required")
	}
	var view emotion.View
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, badRequestf("invalid result: %v", err)
	}
	if view.Kind != emotion.KindEmotionIssue || view.EmotionIssue == nil {
		return nil, history.ErrNotEmotionIssue
	}
	result, err := emotion.Normalize(emotion.Wire(*view.EmotionIssue))
	if err != nil {
		return nil, badRequestf("invalid result: %v", err)
	}
	return result, nil
}

// DELETE /v1/users/{user}/history
func (r *Router) handleHistoryClear(w http.ResponseWriter, req *http.Request) error {
	if err := r.history.Clear(req.Context(), chi.URLParam(req, "user")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/users/{user}/history/{id}
func (r *Router) handleHistoryGet(w http.ResponseWriter, req *http.Request) error {
	d, err := r.history.Get(req.Context(), chi.URLParam(req, "user"), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, d)
}

type patchRequest struct {
	Text             *string `json:"text"`
	CompletedActions *[]int  `json:"completedActions"`
}

// PATCH /v1/users/{user}/history/{id}
func (r *Router) handleHistoryPatch(w http.ResponseWriter, req *http.Request) error {
	var body patchRequest
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	if body.Text == nil && body.CompletedActions == nil {
		return badRequestf("nothing to update")
	}
	user, id := chi.URLParam(req, "user"), chi.URLParam(req, "id")

	var rec history.Record
	var err error
	if body.Text != nil {
		if err := middleware.ValidateText(*body.Text); err != nil {
			return badRequest{msg: err.Error()}
		}
		text := middleware.SanitizeString(*body.Text)
		if text == "" {
			return emotion.ErrEmptyInput
		}
		if rec, err = r.history.EditText(req.Context(), user, id, text); err != nil {
			return err
		}
	}
	if body.CompletedActions != nil {
		if rec, err = r.history.SetCompletedActions(req.Context(), user, id, *body.CompletedActions); err != nil {
			return err
		}
	}
	return writeJSON(w, http.StatusOK, rec)
}

// DELETE /v1/users/{user}/history/{id}
func (r *Router) handleHistoryDelete(w http.ResponseWriter, req *http.Request) error {
	err := r.history.Delete(req.Context(), chi.URLParam(req, "user"), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/users/{user}/stats
func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) error {
	stats, err := r.history.Stats(req.Context(), chi.URLParam(req, "user"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, stats)
}

type trendResponse struct {
	apphistory.TrendSnapshot
	Text string `json:"text"`
}

// GET /v1/users/{user}/trend
func (r *Router) handleTrend(w http.ResponseWriter, req *http.Request) error {
	t, err := r.history.Trend(req.Context(), chi.URLParam(req, "user"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, trendResponse{TrendSnapshot: t, Text: t.Text()})
}
