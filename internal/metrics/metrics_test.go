package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New(nil)
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/quiz/{quizID}", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("{}")) })

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quiz/"+id, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/quiz/{quizID}", "200")))
}

func TestDomainCounters(t *testing.T) {
	m := New(nil)
	m.Submitted("q1", true)
	m.Submitted("q1", true)
	for _, id := range []string{"junk1", "junk2", "junk3"} {
		m.Submitted(id, false)
	}
	m.Deleted("quiz", 3)
	m.Deleted("quiz", 0)

	require.Equal(t, 2.0, testutil.ToFloat64(m.submits.WithLabelValues("q1")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.submits.WithLabelValues(UnknownQuiz)))
	require.Equal(t, 2, testutil.CollectAndCount(m.submits), "unknown ids share one series")
	require.Equal(t, 3.0, testutil.ToFloat64(m.deletes.WithLabelValues("quiz")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `videoquiz_attempts_submitted_total{quiz_id="q1"} 2`)
}
