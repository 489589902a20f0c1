package grading

// AIResult is the structured outcome of AI-grading one open-ended answer.
// It mirrors the JSON the model is instructed to return. Degraded marks a
// fallback result produced when the AI collaborator failed; those answers
// carry a zero score and need manual review, which callers surface instead
// of presenting a silent zero.
type AIResult struct {
	Score        float64  `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Degraded     bool     `json:"degraded,omitempty"`
}
