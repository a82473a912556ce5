// Package report turns selected attempts into instructor views: poll
// tallies, poll/free-response listings and CSV exports.
package report

import (
	"github.com/mind-engage/videoquiz/internal/attempt"
	"github.com/mind-engage/videoquiz/internal/quiz"
)

type ChoiceCount struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

type PollCounts struct {
	Prompt  string                 `json:"prompt"`
	Choices map[string]ChoiceCount `json:"choices"`
}

// PollTally counts selections per declared choice of every poll item in q.
// Every declared choice starts at zero. A row that lists the same choice
// twice counts twice; ids that are not declared choices are ignored.
func PollTally(q quiz.Quiz, rows []attempt.Attempt) map[string]PollCounts {
	counts := map[string]PollCounts{}
	for _, it := range quiz.ItemsByType(q, quiz.TypePoll) {
		pc := PollCounts{Prompt: it.Prompt, Choices: map[string]ChoiceCount{}}
		if pc.Prompt == "" {
			pc.Prompt = it.ID
		}
		for _, c := range it.Choices {
			pc.Choices[c.ID] = ChoiceCount{Text: c.Text}
		}
		counts[it.ID] = pc
	}

	for _, r := range rows {
		for itemID, raw := range r.Answers {
			pc, ok := counts[itemID]
			if !ok {
				continue
			}
			for _, id := range attempt.Selected(attempt.Resolve(raw)) {
				if c, ok := pc.Choices[id]; ok {
					c.Count++
					pc.Choices[id] = c
				}
			}
		}
	}
	return counts
}
