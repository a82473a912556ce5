// Package http is the JSON/CSV API and static frontend of the quiz server.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mind-engage/videoquiz/internal/access"
	"github.com/mind-engage/videoquiz/internal/attempt"
	"github.com/mind-engage/videoquiz/internal/logging"
	"github.com/mind-engage/videoquiz/internal/metrics"
	"github.com/mind-engage/videoquiz/internal/quiz"
)

type Deps struct {
	Attempts  *attempt.Service
	Inspector attempt.Inspector // optional
	Audit     AuditTrail        // optional
	Quizzes   *quiz.Reader
	Gate      access.Gate
	Metrics   *metrics.Metrics // optional
	Log       *zap.Logger

	Frontend         Frontend
	CORSOrigins      []string
	SubmitRatePerMin int  // 0 disables
	TrustProxy       bool // honour X-Forwarded-For / X-Real-IP
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(logging.Requests(d.Log), middleware.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-View-Key", "X-Delete-Key"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	// Public: learners fetch quizzes and submit attempts.
	r.Get("/api/quizzes", ListQuizzesHandler(d.Quizzes))
	r.Get("/api/quiz/{quizID}", GetQuizHandler(d.Quizzes))
	submit := r.With()
	if d.SubmitRatePerMin > 0 {
		submit = r.With(RateLimiter(d.SubmitRatePerMin))
	}
	submit.Post("/api/attempt/{quizID}", SubmitAttemptHandler(d.Attempts))
	r.Get("/api/selftest", SelftestHandler(d.Quizzes, d.Inspector))

	// Instructor views.
	r.Group(func(vr chi.Router) {
		vr.Use(d.Gate.RequireView)
		vr.Get("/api/attempts", ListAttemptsHandler(d.Attempts))
		vr.Get("/api/responses", ResponsesHandler(d.Attempts, d.Quizzes))
		vr.Get("/api/polls/aggregate", AggregatePollsHandler(d.Attempts, d.Quizzes))
		vr.Get("/api/export/attempts", ExportAttemptsHandler(d.Attempts))
		vr.Get("/api/export/poll_fr", ExportPollFRHandler(d.Attempts, d.Quizzes))
		vr.Get("/api/debug/dbinfo", DBInfoHandler(d.Inspector, d.Audit))
		if d.Metrics != nil {
			vr.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
		}
	})

	// Destructive.
	r.Group(func(dr chi.Router) {
		dr.Use(d.Gate.RequireDelete)
		dr.Delete("/api/attempt/{attemptID}", DeleteAttemptHandler(d.Attempts))
		dr.Post("/api/attempts/delete_by_viewer", DeleteByViewerHandler(d.Attempts))
		dr.Post("/api/attempts/delete_all", DeleteAllHandler(d.Attempts))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	MountFrontend(r, d.Frontend)
	return r
}
