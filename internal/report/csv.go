package report

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/mind-engage/videoquiz/internal/attempt"
	"github.com/mind-engage/videoquiz/internal/jsonx"
	"github.com/mind-engage/videoquiz/internal/quiz"
)

// Column naming for WriteWide.
const (
	NameByID     = "id"
	NameByPrompt = "prompt"
)

// DefaultPromptLimit caps prompt-derived column labels.
const DefaultPromptLimit = 40

var (
	LongColumns = []string{"id", "created_at", "quiz_id", "viewer", "points", "max_points", "score_percent", "watch_percent", "watch_seconds"}
	WideColumns = []string{"viewer", "quiz_id", "created_at", "points", "max_points", "score_percent", "watch_percent", "watch_seconds"}
)

type WideOptions struct {
	Naming      string // NameByID (default) or NameByPrompt
	PromptLimit int    // characters, default DefaultPromptLimit
}

// WriteLong writes one row per attempt, optionally with the answers document
// as a trailing answers_json column.
func WriteLong(w io.Writer, rows []attempt.Attempt, includeAnswers bool) error {
	cw := newWriter(w)
	header := append([]string(nil), LongColumns...)
	if includeAnswers {
		header = append(header, "answers_json")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		wp, ws := attempt.WatchMeta(r.Answers)
		line := []string{
			strconv.FormatInt(r.ID, 10),
			r.CreatedAt,
			r.QuizID,
			r.Viewer,
			formatNumber(r.Points),
			formatNumber(r.MaxPoints),
			formatNumber(r.ScorePercent),
			wp,
			ws,
		}
		if includeAnswers {
			answers := r.Answers
			if answers == nil {
				answers = attempt.Answers{}
			}
			b, err := jsonx.Marshal(answers)
			if err != nil {
				return err
			}
			line = append(line, string(b))
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteWide writes one row per attempt with a column per poll item (the
// selected ids joined by "|") and per free-response item (the text), in
// authoring order. Unanswered cells are empty.
func WriteWide(w io.Writer, q quiz.Quiz, rows []attempt.Attempt, opts WideOptions) error {
	polls := quiz.ItemsByType(q, quiz.TypePoll)
	frs := quiz.ItemsByType(q, quiz.FreeResponseTypes...)

	cw := newWriter(w)
	header := append([]string(nil), WideColumns...)
	for _, it := range polls {
		header = append(header, columnName(it, "poll", opts))
	}
	for _, it := range frs {
		header = append(header, columnName(it, "fr", opts))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		wp, ws := attempt.WatchMeta(r.Answers)
		line := []string{
			r.Viewer,
			r.QuizID,
			r.CreatedAt,
			formatNumber(r.Points),
			formatNumber(r.MaxPoints),
			formatNumber(r.ScorePercent),
			wp,
			ws,
		}
		for _, it := range polls {
			cell := ""
			if raw, ok := r.Answers[it.ID]; ok {
				if c, ok := attempt.Resolve(raw).(attempt.ChoiceAnswer); ok {
					cell = strings.Join(c.Selected, "|")
				}
			}
			line = append(line, cell)
		}
		for _, it := range frs {
			cell := ""
			if raw, ok := r.Answers[it.ID]; ok {
				if obj, ok := jsonx.Object(raw); ok {
					cell, _ = jsonx.String(obj["text"])
				}
			}
			line = append(line, cell)
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func columnName(it quiz.Item, prefix string, opts WideOptions) string {
	if opts.Naming != NameByPrompt {
		return prefix + ":" + it.ID
	}
	limit := opts.PromptLimit
	if limit <= 0 {
		limit = DefaultPromptLimit
	}
	p := it.Prompt
	if p == "" {
		p = it.ID
	}
	p = strings.ReplaceAll(strings.TrimSpace(p), "\n", " ")
	if r := []rune(p); len(r) > limit {
		p = string(r[:limit-1]) + "…"
	}
	return prefix + ":" + p
}

// CRLF rows, as spreadsheet tools expect.
func newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	return cw
}

// formatNumber spells floats the way the exports always have: integral
// values keep a trailing ".0", very large or small magnitudes use exponent
// form.
func formatNumber(f float64) string {
	abs := math.Abs(f)
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return strconv.FormatFloat(f, 'g', -1, 64)
	case abs != 0 && (abs < 1e-4 || abs >= 1e16):
		return strconv.FormatFloat(f, 'e', -1, 64)
	case f == math.Trunc(f):
		return strconv.FormatFloat(f, 'f', 1, 64)
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}
