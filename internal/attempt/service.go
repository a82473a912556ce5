package attempt

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SchemaSource resolves per-item free-response limits for a quiz. Failures
// must come back as an empty map, never an error; found reports whether the
// quiz has a readable document.
type SchemaSource interface {
	MaxLens(ctx context.Context, quizID string) (lens map[string]int, found bool)
}

// Auditor records destructive operations. A failing Auditor never fails the
// operation it describes.
type Auditor interface {
	Record(ctx context.Context, typ, key string, data any) error
}

// Observer is told about successful writes (metrics). known is false for
// submissions against a quiz id with no readable document.
type Observer interface {
	Submitted(quizID string, known bool)
	Deleted(scope string, n int64)
}

type Service struct {
	store    Store
	schema   SchemaSource
	auditor  Auditor
	observer Observer
	log      *zap.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithAuditor(a Auditor) Option   { return func(s *Service) { s.auditor = a } }
func WithObserver(o Observer) Option { return func(s *Service) { s.observer = o } }
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, schema SchemaSource, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{store: store, schema: schema, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit sanitizes and persists one attempt.
func (s *Service) Submit(ctx context.Context, quizID string, sub Submission) (Attempt, error) {
	quizID = strings.TrimSpace(quizID)
	if quizID == "" {
		return Attempt{}, errors.Join(ErrInvalidInput, errors.New("quiz_id required"))
	}

	var (
		maxLens map[string]int
		known   bool
	)
	if s.schema != nil {
		maxLens, known = s.schema.MaxLens(ctx, quizID)
	}

	a := Attempt{
		QuizID:       quizID,
		Viewer:       SanitizeViewer(strings.TrimSpace(sub.Viewer)),
		Points:       sub.Points,
		MaxPoints:    sub.MaxPoints,
		ScorePercent: ScorePercent(sub.Points, sub.MaxPoints),
		Answers:      Normalize(sub.Answers, maxLens),
		CreatedAt:    FormatTime(s.now()),
	}
	if sub.Category != "" {
		c := sub.Category
		a.Category = &c
	}

	id, err := s.store.Insert(ctx, a)
	if err != nil {
		return Attempt{}, err
	}
	a.ID = id
	if s.observer != nil {
		s.observer.Submitted(quizID, known)
	}
	s.log.Debug("attempt stored",
		zap.Int64("id", id),
		zap.String("quiz_id", quizID),
		zap.String("viewer", a.Viewer),
		zap.Float64("score_percent", a.ScorePercent))
	return a, nil
}

// List reads a snapshot of matching attempts and reduces it per mode.
func (s *Service) List(ctx context.Context, f Filter, mode Mode) ([]Attempt, error) {
	rows, err := s.store.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	return Select(rows, mode), nil
}

func (s *Service) DeleteByID(ctx context.Context, id int64) (int64, error) {
	n, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return 0, err
	}
	s.deleted(ctx, "id", "attempt:"+strconv.FormatInt(id, 10), n, map[string]any{"id": id})
	return n, nil
}

func (s *Service) DeleteByViewer(ctx context.Context, quizID, viewer string) (int64, error) {
	quizID, viewer = strings.TrimSpace(quizID), strings.TrimSpace(viewer)
	if quizID == "" || viewer == "" {
		return 0, errors.Join(ErrInvalidInput, errors.New("quiz_id and viewer required"))
	}
	n, err := s.store.DeleteByViewer(ctx, quizID, viewer)
	if err != nil {
		return 0, err
	}
	s.deleted(ctx, "viewer", "quiz:"+quizID+"/viewer:"+viewer, n, map[string]any{"quiz_id": quizID, "viewer": viewer})
	return n, nil
}

func (s *Service) DeleteByQuiz(ctx context.Context, quizID string) (int64, error) {
	quizID = strings.TrimSpace(quizID)
	if quizID == "" {
		return 0, errors.Join(ErrInvalidInput, errors.New("quiz_id required"))
	}
	n, err := s.store.DeleteByQuiz(ctx, quizID)
	if err != nil {
		return 0, err
	}
	s.deleted(ctx, "quiz", "quiz:"+quizID, n, map[string]any{"quiz_id": quizID})
	return n, nil
}

func (s *Service) deleted(ctx context.Context, scope, key string, n int64, data map[string]any) {
	if s.observer != nil {
		s.observer.Deleted(scope, n)
	}
	s.log.Info("attempts deleted", zap.String("scope", scope), zap.String("key", key), zap.Int64("rows", n))
	if s.auditor == nil {
		return
	}
	data["rows"] = n
	if err := s.auditor.Record(ctx, "AttemptsDeleted", key, data); err != nil {
		s.log.Warn("audit record failed", zap.String("key", key), zap.Error(err))
	}
}
