package attempt_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mind-engage/videoquiz/internal/attempt"
)

func TestSubmission_Unmarshal(t *testing.T) {
	var sub attempt.Submission
	require.NoError(t, json.Unmarshal([]byte(`{"viewer":"ann","points":"3","max_points":4,"answers":null,"category":"demo"}`), &sub))
	require.Equal(t, "ann", sub.Viewer)
	require.Equal(t, 3.0, sub.Points)
	require.Equal(t, 4.0, sub.MaxPoints)
	require.Equal(t, "demo", sub.Category)
	require.NotNil(t, sub.Answers)
	require.Empty(t, sub.Answers)

	require.NoError(t, json.Unmarshal([]byte(`{}`), &sub))
	require.Zero(t, sub.Points)
}

func TestSubmission_Rejects(t *testing.T) {
	for name, body := range map[string]string{
		"negative points": `{"points": -1}`,
		"text points":     `{"points": "lots"}`,
		"array answers":   `{"answers": [1, 2]}`,
		"object max":      `{"max_points": {"v": 1}}`,
	} {
		t.Run(name, func(t *testing.T) {
			var sub attempt.Submission
			err := json.Unmarshal([]byte(body), &sub)
			require.ErrorIs(t, err, attempt.ErrInvalidInput)
		})
	}
}
