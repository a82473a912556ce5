package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/videoquiz/internal/attempt"
	"github.com/mind-engage/videoquiz/internal/jsonx"
)

// POST /api/attempt/{quizID}
// Public. Body: {viewer, points, max_points, answers, category}.
func SubmitAttemptHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub attempt.Submission
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&sub); err != nil {
			if errors.Is(err, attempt.ErrInvalidInput) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		a, err := svc.Submit(r.Context(), chi.URLParam(r, "quizID"), sub)
		if errors.Is(err, attempt.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":            true,
			"id":            a.ID,
			"quiz_id":       a.QuizID,
			"viewer":        a.Viewer,
			"points":        a.Points,
			"max_points":    a.MaxPoints,
			"score_percent": a.ScorePercent,
			"created_at":    a.CreatedAt,
		})
	}
}

// GET /api/attempts?quiz_id=...&viewer=...&attempt=all|latest|best
func ListAttemptsHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := attempt.Filter{
			QuizID: strings.TrimSpace(r.URL.Query().Get("quiz_id")),
			Viewer: strings.TrimSpace(r.URL.Query().Get("viewer")),
		}
		_, mode := attemptMode(r, attempt.ModeAll)

		list, err := svc.List(r.Context(), f, mode)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if list == nil {
			list = []attempt.Attempt{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"attempts": list})
	}
}

// DELETE /api/attempt/{attemptID}
func DeleteAttemptHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "attemptID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusNotFound, "attempt id must be an integer")
			return
		}
		n, err := svc.DeleteByID(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": id, "rows": n})
	}
}

// POST /api/attempts/delete_by_viewer
// quiz_id and viewer come from the query string or the JSON body.
func DeleteByViewerHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := bodyObject(r)
		quizID, viewer := field(r, body, "quiz_id"), field(r, body, "viewer")
		if quizID == "" || viewer == "" {
			writeError(w, http.StatusBadRequest, "quiz_id and viewer required")
			return
		}
		n, err := svc.DeleteByViewer(r.Context(), quizID, viewer)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted_viewer": viewer, "quiz_id": quizID, "rows": n})
	}
}

// POST /api/attempts/delete_all  {quiz_id}
func DeleteAllHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID, _ := jsonx.String(bodyObject(r)["quiz_id"])
		quizID = strings.TrimSpace(quizID)
		if quizID == "" {
			writeError(w, http.StatusBadRequest, "quiz_id required")
			return
		}
		n, err := svc.DeleteByQuiz(r.Context(), quizID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted_quiz": quizID, "rows": n})
	}
}
