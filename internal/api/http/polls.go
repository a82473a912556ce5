package http

import (
	"net/http"
	"strings"

	"github.com/mind-engage/videoquiz/internal/attempt"
	"github.com/mind-engage/videoquiz/internal/quiz"
	"github.com/mind-engage/videoquiz/internal/report"
)

// GET /api/responses?quiz_id=...&type=poll|fr|all&attempt=all|latest|best
func ResponsesHandler(svc *attempt.Service, qr *quiz.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID := strings.TrimSpace(r.URL.Query().Get("quiz_id"))
		typ := strings.ToLower(r.URL.Query().Get("type"))
		if typ == "" {
			typ = report.KindAll
		}
		_, mode := attemptMode(r, attempt.ModeAll)

		rows, err := svc.List(r.Context(), attempt.Filter{QuizID: quizID}, mode)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"responses": report.Responses(r.Context(), rows, typ, qr.Load),
		})
	}
}

// GET /api/polls/aggregate?quiz_id=...&attempt=all|latest|best
// A quiz that cannot be read aggregates to no polls.
func AggregatePollsHandler(svc *attempt.Service, qr *quiz.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID := strings.TrimSpace(r.URL.Query().Get("quiz_id"))
		if quizID == "" {
			writeError(w, http.StatusBadRequest, "quiz_id required")
			return
		}
		_, mode := attemptMode(r, attempt.ModeLatest)

		rows, err := svc.List(r.Context(), attempt.Filter{QuizID: quizID}, mode)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		polls := map[string]report.PollCounts{}
		if q, err := qr.Load(r.Context(), quizID); err == nil {
			polls = report.PollTally(q, rows)
		}
		writeJSON(w, http.StatusOK, map[string]any{"quiz_id": quizID, "polls": polls})
	}
}
