package http

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/mind-engage/videoquiz/internal/attempt"
	"github.com/mind-engage/videoquiz/internal/quiz"
	"github.com/mind-engage/videoquiz/internal/report"
)

// GET /api/export/attempts?quiz_id=...&viewer=...&attempt=...&include_answers=1
func ExportAttemptsHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := attempt.Filter{
			QuizID: strings.TrimSpace(r.URL.Query().Get("quiz_id")),
			Viewer: strings.TrimSpace(r.URL.Query().Get("viewer")),
		}
		raw, mode := attemptMode(r, attempt.ModeLatest)
		includeAnswers := false
		switch r.URL.Query().Get("include_answers") {
		case "1", "true", "yes":
			includeAnswers = true
		}

		rows, err := svc.List(r.Context(), f, mode)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		var buf bytes.Buffer
		if err := report.WriteLong(&buf, rows, includeAnswers); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		name := f.QuizID
		if name == "" {
			name = "all"
		}
		csvResponse(w, "attempts_"+name+"_"+raw+".csv", buf.Bytes())
	}
}

// GET /api/export/poll_fr?quiz_id=...&attempt=...&name_mode=id|prompt&limit_prompt=40
func ExportPollFRHandler(svc *attempt.Service, qr *quiz.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID := strings.TrimSpace(r.URL.Query().Get("quiz_id"))
		if quizID == "" {
			writeError(w, http.StatusBadRequest, "quiz_id required")
			return
		}
		raw, mode := attemptMode(r, attempt.ModeLatest)
		opts := report.WideOptions{
			Naming:      strings.ToLower(r.URL.Query().Get("name_mode")),
			PromptLimit: parseIntDefault(r.URL.Query().Get("limit_prompt"), report.DefaultPromptLimit),
		}

		q, err := qr.Load(r.Context(), quizID)
		if errors.Is(err, quiz.ErrNotFound) {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		rows, err := svc.List(r.Context(), attempt.Filter{QuizID: quizID}, mode)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		var buf bytes.Buffer
		if err := report.WriteWide(&buf, q, rows, opts); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		csvResponse(w, "poll_fr_"+quizID+"_"+raw+".csv", buf.Bytes())
	}
}
