package attempt

// Select reduces rows per (quiz, viewer). ModeLatest keeps the row with the
// greatest (created_at, id); ModeBest the greatest (score_percent,
// created_at, id). Any other mode returns rows unchanged. Winners come back
// in the order their group was first seen.
func Select(rows []Attempt, mode Mode) []Attempt {
	if mode != ModeLatest && mode != ModeBest {
		return rows
	}

	type group struct{ quizID, viewer string }
	winner := make(map[group]int, len(rows))
	order := make([]group, 0, len(rows))
	for i := range rows {
		g := group{rows[i].QuizID, rows[i].Viewer}
		j, seen := winner[g]
		switch {
		case !seen:
			winner[g] = i
			order = append(order, g)
		case ranksBelow(rows[j], rows[i], mode):
			winner[g] = i
		}
	}

	out := make([]Attempt, 0, len(order))
	for _, g := range order {
		out = append(out, rows[winner[g]])
	}
	return out
}

// ranksBelow reports whether a sorts strictly before b under mode.
func ranksBelow(a, b Attempt, mode Mode) bool {
	if mode == ModeBest && a.ScorePercent != b.ScorePercent {
		return a.ScorePercent < b.ScorePercent
	}
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt < b.CreatedAt
	}
	return a.ID < b.ID
}
