package attempt

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/mind-engage/videoquiz/internal/jsonx"
)

// ErrInvalidInput marks a malformed submission or a missing required field.
var ErrInvalidInput = errors.New("invalid input")

// TimeLayout is the on-disk spelling of created_at. Fixed width, so the text
// column sorts chronologically.
const TimeLayout = "2006-01-02T15:04:05.000000-07:00"

// MetaKey is the reserved answers entry carrying watch-progress telemetry.
const MetaKey = "__meta"

// Answers maps an item id to its raw answer value as submitted (after
// normalization). Values stay raw JSON so unknown fields survive storage.
type Answers map[string]json.RawMessage

type Attempt struct {
	ID           int64   `json:"id"`
	QuizID       string  `json:"quiz_id"`
	Viewer       string  `json:"viewer"`
	Points       float64 `json:"points"`
	MaxPoints    float64 `json:"max_points"`
	ScorePercent float64 `json:"score_percent"`
	Answers      Answers `json:"answers"`
	Category     *string `json:"category"`
	CreatedAt    string  `json:"created_at"` // TimeLayout, UTC
}

// Filter narrows Query; empty fields match everything.
type Filter struct {
	QuizID string
	Viewer string
}

// Mode selects which attempts per (quiz, viewer) survive a read.
type Mode string

const (
	ModeAll    Mode = "all"
	ModeLatest Mode = "latest"
	ModeBest   Mode = "best"
)

// ParseMode lower-cases s; unknown or empty values yield def.
func ParseMode(s string, def Mode) Mode {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAll, ModeLatest, ModeBest:
		return m
	default:
		return def
	}
}

// ScorePercent is points/maxPoints as a percentage rounded to two decimals;
// zero when maxPoints is zero.
func ScorePercent(points, maxPoints float64) float64 {
	if maxPoints == 0 {
		return 0
	}
	return math.Round(points/maxPoints*100*100) / 100
}

// FormatTime renders t in TimeLayout after converting to UTC.
func FormatTime(t time.Time) string { return t.UTC().Format(TimeLayout) }

// Submission is the learner-supplied part of an attempt. Numbers may arrive
// as JSON numbers or numeric strings.
type Submission struct {
	Viewer    string
	Points    float64
	MaxPoints float64
	Answers   Answers
	Category  string
}

func (s *Submission) UnmarshalJSON(b []byte) error {
	var raw struct {
		Viewer    json.RawMessage `json:"viewer"`
		Points    json.RawMessage `json:"points"`
		MaxPoints json.RawMessage `json:"max_points"`
		Answers   json.RawMessage `json:"answers"`
		Category  json.RawMessage `json:"category"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s.Viewer, _ = jsonx.String(raw.Viewer)
	s.Category, _ = jsonx.String(raw.Category)

	var err error
	if s.Points, err = number("points", raw.Points); err != nil {
		return err
	}
	if s.MaxPoints, err = number("max_points", raw.MaxPoints); err != nil {
		return err
	}

	s.Answers = Answers{}
	if !jsonx.IsNull(raw.Answers) {
		m, ok := jsonx.Object(raw.Answers)
		if !ok {
			return errors.Join(ErrInvalidInput, errors.New("answers must be an object"))
		}
		s.Answers = m
	}
	return nil
}

func number(field string, raw json.RawMessage) (float64, error) {
	if jsonx.IsNull(raw) {
		return 0, nil
	}
	if s, ok := jsonx.String(raw); ok && s == "" {
		return 0, nil
	}
	f, ok := jsonx.Float(raw)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.Join(ErrInvalidInput, errors.New(field+" must be numeric"))
	}
	if f < 0 {
		return 0, errors.Join(ErrInvalidInput, errors.New(field+" must not be negative"))
	}
	return f, nil
}
