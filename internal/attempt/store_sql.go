package attempt

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mind-engage/videoquiz/internal/db"
	"github.com/mind-engage/videoquiz/internal/jsonx"
)

type SQLStore struct {
	db         *sql.DB
	driver     db.Driver
	location   string
	answersCol string
}

// NewSQLStore resolves which answers column the schema carries. location is
// only reported back by Info.
func NewSQLStore(ctx context.Context, sqldb *sql.DB, driver db.Driver, location string) (*SQLStore, error) {
	cols, err := db.Columns(ctx, sqldb, driver, "attempts")
	if err != nil {
		return nil, fmt.Errorf("inspect attempts: %w", err)
	}
	return &SQLStore{db: sqldb, driver: driver, location: location, answersCol: db.AnswersColumn(cols)}, nil
}

func (s *SQLStore) q(query string) string { return db.Rebind(s.driver, query) }

func (s *SQLStore) Insert(ctx context.Context, a Attempt) (int64, error) {
	answers := a.Answers
	if answers == nil {
		answers = Answers{}
	}
	buf, err := jsonx.Marshal(answers)
	if err != nil {
		return 0, fmt.Errorf("encode answers: %w", err)
	}
	var category any
	if a.Category != nil {
		category = *a.Category
	}

	var id int64
	err = s.db.QueryRowContext(ctx, s.q(`INSERT INTO attempts
		(quiz_id, viewer, points, max_points, score_percent, `+s.answersCol+`, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		a.QuizID, a.Viewer, a.Points, a.MaxPoints, a.ScorePercent, string(buf), category, a.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert attempt: %w", err)
	}
	return id, nil
}

func (s *SQLStore) Query(ctx context.Context, f Filter) ([]Attempt, error) {
	query := `SELECT id, quiz_id, viewer, points, max_points, score_percent, ` + s.answersCol + `, category, created_at
		FROM attempts
		WHERE 1=1`
	var args []any
	if f.QuizID != "" {
		query += " AND quiz_id = ?"
		args = append(args, f.QuizID)
	}
	if f.Viewer != "" {
		query += " AND viewer = ?"
		args = append(args, f.Viewer)
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	out := make([]Attempt, 0)
	for rows.Next() {
		var (
			a                 Attempt
			viewer, createdAt sql.NullString
			answers, category sql.NullString
			points, maxPoints sql.NullFloat64
			score             sql.NullFloat64
		)
		if err := rows.Scan(&a.ID, &a.QuizID, &viewer, &points, &maxPoints, &score, &answers, &category, &createdAt); err != nil {
			return nil, err
		}
		a.Viewer = viewer.String
		a.CreatedAt = createdAt.String
		a.Points = points.Float64
		a.MaxPoints = maxPoints.Float64
		if score.Valid {
			a.ScorePercent = score.Float64
		} else {
			a.ScorePercent = ScorePercent(a.Points, a.MaxPoints)
		}
		if category.Valid {
			c := category.String
			a.Category = &c
		}
		a.Answers = Answers{}
		if answers.Valid && answers.String != "" {
			// unreadable legacy documents read as no answers
			if err := json.Unmarshal([]byte(answers.String), &a.Answers); err != nil || a.Answers == nil {
				a.Answers = Answers{}
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteByID(ctx context.Context, id int64) (int64, error) {
	return s.exec(ctx, `DELETE FROM attempts WHERE id = ?`, id)
}

func (s *SQLStore) DeleteByViewer(ctx context.Context, quizID, viewer string) (int64, error) {
	return s.exec(ctx, `DELETE FROM attempts WHERE quiz_id = ? AND viewer = ?`, quizID, viewer)
}

func (s *SQLStore) DeleteByQuiz(ctx context.Context, quizID string) (int64, error) {
	return s.exec(ctx, `DELETE FROM attempts WHERE quiz_id = ?`, quizID)
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return 0, fmt.Errorf("delete attempts: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLStore) Columns(ctx context.Context) ([]string, error) {
	return db.Columns(ctx, s.db, s.driver, "attempts")
}

func (s *SQLStore) Info(ctx context.Context) (Info, error) {
	info := Info{Driver: string(s.driver), Location: s.location}
	cols, err := s.Columns(ctx)
	if err != nil {
		return info, err
	}
	info.Columns = cols
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attempts`).Scan(&info.Count); err != nil {
		return info, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, quiz_id, viewer, created_at FROM attempts ORDER BY id DESC LIMIT 5`)
	if err != nil {
		return info, err
	}
	defer rows.Close()
	info.Recent = make([]RecentAttempt, 0, 5)
	for rows.Next() {
		var (
			r                 RecentAttempt
			viewer, createdAt sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.QuizID, &viewer, &createdAt); err != nil {
			return info, err
		}
		r.Viewer, r.CreatedAt = viewer.String, createdAt.String
		info.Recent = append(info.Recent, r)
	}
	return info, rows.Err()
}
