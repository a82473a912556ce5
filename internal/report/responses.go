package report

import (
	"context"
	"sort"
	"strings"

	"github.com/mind-engage/videoquiz/internal/attempt"
	"github.com/mind-engage/videoquiz/internal/jsonx"
	"github.com/mind-engage/videoquiz/internal/quiz"
)

// Kinds accepted by Responses.
const (
	KindPoll = "poll"
	KindFR   = "fr"
	KindAll  = "all"
)

type Response struct {
	AttemptID int64    `json:"attempt_id"`
	QuizID    string   `json:"quiz_id"`
	Viewer    string   `json:"viewer"`
	ItemID    string   `json:"item_id"`
	ItemType  string   `json:"item_type"`
	CreatedAt string   `json:"created_at"`
	Selected  []string `json:"selected,omitzero"` // nil for fr, [] for an unanswered poll
	Text      *string  `json:"text,omitempty"`
}

// QuizLoader is the schema lookup Responses uses for untagged answers.
type QuizLoader func(ctx context.Context, quizID string) (quiz.Quiz, error)

// Responses emits one entry per (attempt, item) whose kind is poll or fr and
// matches filter (poll, fr or all). The kind is the answer's own "kind" tag
// when present, otherwise the item's type in the quiz; anything else,
// including the free/free_response spellings, is left out even for filter
// all. Quizzes are loaded at most once per call and a quiz that fails to
// load contributes no types.
func Responses(ctx context.Context, rows []attempt.Attempt, filter string, load QuizLoader) []Response {
	filter = strings.ToLower(filter)
	quizzes := map[string]quiz.Quiz{}
	itemType := func(quizID, itemID string) string {
		q, ok := quizzes[quizID]
		if !ok {
			var err error
			if q, err = load(ctx, quizID); err != nil {
				q = quiz.Quiz{ID: quizID}
			}
			quizzes[quizID] = q
		}
		it, ok := q.Item(itemID)
		if !ok {
			return ""
		}
		return strings.ToLower(it.Type)
	}

	out := make([]Response, 0)
	for _, r := range rows {
		ids := make([]string, 0, len(r.Answers))
		for id := range r.Answers {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, itemID := range ids {
			v := attempt.Resolve(r.Answers[itemID])
			kind := v.Kind()
			if kind == "" {
				kind = itemType(r.QuizID, itemID)
			}
			if kind != KindPoll && kind != KindFR {
				continue
			}
			if filter != KindAll && kind != filter {
				continue
			}

			e := Response{
				AttemptID: r.ID,
				QuizID:    r.QuizID,
				Viewer:    r.Viewer,
				ItemID:    itemID,
				ItemType:  kind,
				CreatedAt: r.CreatedAt,
			}
			if kind == KindPoll {
				e.Selected = attempt.Selected(v)
				if e.Selected == nil {
					e.Selected = []string{}
				}
			} else {
				txt := ""
				if obj, ok := jsonx.Object(r.Answers[itemID]); ok {
					txt, _ = jsonx.String(obj["text"])
				}
				e.Text = &txt
			}
			out = append(out, e)
		}
	}
	return out
}
