package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScorecard = `{
	"overallScore": 82,
	"categories": [
		{"name": "Technical Knowledge", "score": 85, "feedback": "Strong."},
		{"name": "Communication", "score": 80, "feedback": "Clear."},
		{"name": "Problem Solving", "score": 78, "feedback": "Methodical."},
		{"name": "Depth of Understanding", "score": 84, "feedback": "Deep."}
	],
	"strengths": ["a", "b", "c"],
	"improvements": ["x", "y", "z"],
	"summary": "Solid interview."
}`

func TestParseEvaluation(t *testing.T) {
	ev, err := ParseEvaluation(validScorecard)
	require.NoError(t, err)

	assert.Equal(t, 82, ev.OverallScore)
	assert.Len(t, ev.Categories, 4)
	assert.Equal(t, "Technical Knowledge", ev.Categories[0].Name)
	assert.Equal(t, "Solid interview.", ev.Summary)
}

func TestParseEvaluationStripsMarkdownFences(t *testing.T) {
	ev, err := ParseEvaluation("```json\n" + validScorecard + "\n```")
	require.NoError(t, err)
	assert.Equal(t, 82, ev.OverallScore)
}

func TestParseEvaluationRejectsGarbage(t *testing.T) {
	_, err := ParseEvaluation("I think the candidate did great!")
	assert.Error(t, err)
}

func TestParseEvaluationRejectsWrongShape(t *testing.T) {
	_, err := ParseEvaluation(`{"overallScore": 80, "categories": [], "strengths": ["a","b","c"], "improvements": ["x","y","z"], "summary": "s"}`)
	assert.Error(t, err)

	_, err = ParseEvaluation(`{"overallScore": 180, "categories": [{},{},{},{}], "strengths": ["a","b","c"], "improvements": ["x","y","z"], "summary": "s"}`)
	assert.Error(t, err)
}

func TestDefaultEvaluationShape(t *testing.T) {
	ev := DefaultEvaluation()

	assert.Equal(t, 70, ev.OverallScore)
	require.Len(t, ev.Categories, 4)
	assert.Equal(t, 70, ev.Categories[0].Score)
	assert.Equal(t, 75, ev.Categories[1].Score)
	assert.Equal(t, 68, ev.Categories[2].Score)
	assert.Equal(t, 65, ev.Categories[3].Score)
	assert.Len(t, ev.Strengths, 3)
	assert.Len(t, ev.Improvements, 3)
	assert.NotEmpty(t, ev.Summary)
}
