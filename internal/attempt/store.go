package attempt

import "context"

// Store persists attempts. Rows are append-only; each Insert and Delete* is
// a single atomic statement.
type Store interface {
	// Insert assigns and returns the new id. a.ID is ignored.
	Insert(ctx context.Context, a Attempt) (int64, error)
	// Query returns matching rows ordered by created_at, then id, ascending.
	Query(ctx context.Context, f Filter) ([]Attempt, error)

	// Deletes report the number of rows removed; zero is not an error.
	DeleteByID(ctx context.Context, id int64) (int64, error)
	DeleteByViewer(ctx context.Context, quizID, viewer string) (int64, error)
	DeleteByQuiz(ctx context.Context, quizID string) (int64, error)
}

// Inspector exposes storage diagnostics for the selftest and dbinfo views.
type Inspector interface {
	Columns(ctx context.Context) ([]string, error)
	Info(ctx context.Context) (Info, error)
}

type Info struct {
	Driver   string          `json:"driver"`
	Location string          `json:"db_path"`
	Columns  []string        `json:"attempts_columns"`
	Count    int64           `json:"attempts_count"`
	Recent   []RecentAttempt `json:"attempts_recent"`
}

type RecentAttempt struct {
	ID        int64  `json:"id"`
	QuizID    string `json:"quiz_id"`
	Viewer    string `json:"viewer"`
	CreatedAt string `json:"created_at"`
}

// RequiredColumns must exist on the attempts table of a healthy install.
var RequiredColumns = []string{"quiz_id", "viewer", "points", "max_points", "score_percent", "created_at"}
