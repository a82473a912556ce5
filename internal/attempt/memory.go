package attempt

import (
	"context"
	"sort"
	"sync"
)

// memoryStore keeps attempts in process. Used with DB_DRIVER=memory for
// demos and by tests.
type memoryStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   []Attempt
}

func NewInMemoryStore() Store {
	return &memoryStore{}
}

func (m *memoryStore) Insert(_ context.Context, a Attempt) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = m.nextID
	a.Answers = copyAnswers(a.Answers)
	m.rows = append(m.rows, a)
	return a.ID, nil
}

func (m *memoryStore) Query(_ context.Context, f Filter) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Attempt, 0, len(m.rows))
	for _, a := range m.rows {
		if f.QuizID != "" && a.QuizID != f.QuizID {
			continue
		}
		if f.Viewer != "" && a.Viewer != f.Viewer {
			continue
		}
		a.Answers = copyAnswers(a.Answers)
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memoryStore) DeleteByID(_ context.Context, id int64) (int64, error) {
	return m.deleteWhere(func(a Attempt) bool { return a.ID == id }), nil
}

func (m *memoryStore) DeleteByViewer(_ context.Context, quizID, viewer string) (int64, error) {
	return m.deleteWhere(func(a Attempt) bool { return a.QuizID == quizID && a.Viewer == viewer }), nil
}

func (m *memoryStore) DeleteByQuiz(_ context.Context, quizID string) (int64, error) {
	return m.deleteWhere(func(a Attempt) bool { return a.QuizID == quizID }), nil
}

func (m *memoryStore) deleteWhere(match func(Attempt) bool) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	var n int64
	for _, a := range m.rows {
		if match(a) {
			n++
			continue
		}
		kept = append(kept, a)
	}
	m.rows = kept
	return n
}

func (m *memoryStore) Columns(context.Context) ([]string, error) {
	return []string{"id", "quiz_id", "viewer", "points", "max_points", "score_percent", "answers_json", "category", "created_at"}, nil
}

func (m *memoryStore) Info(ctx context.Context) (Info, error) {
	cols, _ := m.Columns(ctx)
	m.mu.RLock()
	defer m.mu.RUnlock()
	info := Info{Driver: "memory", Location: ":memory:", Columns: cols, Count: int64(len(m.rows))}
	info.Recent = make([]RecentAttempt, 0, 5)
	for i := len(m.rows) - 1; i >= 0 && len(info.Recent) < 5; i-- {
		a := m.rows[i]
		info.Recent = append(info.Recent, RecentAttempt{ID: a.ID, QuizID: a.QuizID, Viewer: a.Viewer, CreatedAt: a.CreatedAt})
	}
	return info, nil
}

func copyAnswers(a Answers) Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = append([]byte(nil), v...)
	}
	return out
}
