package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/videoquiz/internal/quiz"
)

// GET /api/quizzes
func ListQuizzesHandler(qr *quiz.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := qr.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"quizzes": list})
	}
}

// GET /api/quiz/{quizID}
// The stored document is returned as authored, with "id" set to the route id.
func GetQuizHandler(qr *quiz.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := qr.Document(r.Context(), chi.URLParam(r, "quizID"))
		switch {
		case errors.Is(err, quiz.ErrNotFound):
			writeError(w, http.StatusNotFound, "quiz not found")
		case err != nil:
			writeError(w, http.StatusInternalServerError, "failed to read quiz: "+err.Error())
		default:
			writeJSON(w, http.StatusOK, doc)
		}
	}
}
