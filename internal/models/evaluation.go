package models

// EvaluationCategory scores one dimension of the interview.
type EvaluationCategory struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Evaluation is the fixed-shape scorecard returned at the end of an
// interview: exactly four categories, three strengths, three improvements.
type Evaluation struct {
	OverallScore int                  `json:"overallScore"`
	Categories   []EvaluationCategory `json:"categories"`
	Strengths    []string             `json:"strengths"`
	Improvements []string             `json:"improvements"`
	Summary      string               `json:"summary"`
}
