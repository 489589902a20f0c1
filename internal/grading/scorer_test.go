package grading

import (
	"encoding/json"
	"testing"

	"github.com/nfcelis/examspot/internal/model"
	"gorm.io/datatypes"
)

func mcQuestion(key string, points int, partial bool) *model.Question {
	return &model.Question{
		ID:                 1,
		Type:               model.QuestionMultipleChoice,
		CorrectAnswer:      datatypes.JSON(key),
		Points:             points,
		AllowPartialCredit: partial,
	}
}

func TestGradeMultipleChoice_SingleAnswer(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		answer    string
		isCorrect bool
		score     int
	}{
		{name: "correct index", key: `1`, answer: `1`, isCorrect: true, score: 10},
		{name: "wrong index", key: `1`, answer: `2`, isCorrect: false, score: 0},
		{name: "zero index correct", key: `0`, answer: `0`, isCorrect: true, score: 10},
		{name: "string instead of index", key: `1`, answer: `"1"`, isCorrect: false, score: 0},
		{name: "array instead of index", key: `1`, answer: `[1]`, isCorrect: false, score: 0},
		{name: "empty answer", key: `1`, answer: ``, isCorrect: false, score: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := GradeMultipleChoice(mcQuestion(tc.key, 10, false), []byte(tc.answer))
			assertResult(t, got, tc.isCorrect, tc.score)
		})
	}
}

func TestGradeMultipleChoice_MultiSelectExact(t *testing.T) {
	tests := []struct {
		name      string
		answer    string
		isCorrect bool
		score     int
	}{
		{name: "exact match", answer: `[0,2]`, isCorrect: true, score: 10},
		{name: "exact match reordered", answer: `[2,0]`, isCorrect: true, score: 10},
		{name: "missing one", answer: `[0]`, isCorrect: false, score: 0},
		{name: "extra one", answer: `[0,2,3]`, isCorrect: false, score: 0},
		{name: "all wrong", answer: `[1,3]`, isCorrect: false, score: 0},
		{name: "empty selection", answer: `[]`, isCorrect: false, score: 0},
		{name: "malformed", answer: `{"a":1}`, isCorrect: false, score: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := GradeMultipleChoice(mcQuestion(`[0,2]`, 10, false), []byte(tc.answer))
			assertResult(t, got, tc.isCorrect, tc.score)
		})
	}
}

func TestGradeMultipleChoice_MultiSelectPartialCredit(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		answer    string
		points    int
		isCorrect bool
		score     int
	}{
		// round((1-0)/2 * 10) = 5
		{name: "half right", key: `[0,2]`, answer: `[0]`, points: 10, isCorrect: false, score: 5},
		// one right one wrong cancel out
		{name: "right and wrong cancel", key: `[0,2]`, answer: `[0,1]`, points: 10, isCorrect: false, score: 0},
		// never negative
		{name: "mostly wrong floors at zero", key: `[0,2]`, answer: `[1,3,4]`, points: 10, isCorrect: false, score: 0},
		{name: "exact still full", key: `[0,2]`, answer: `[2,0]`, points: 10, isCorrect: true, score: 10},
		// round((2-1)/3 * 10) = 3
		{name: "two right one wrong of three", key: `[0,1,2]`, answer: `[0,1,4]`, points: 10, isCorrect: false, score: 3},
		// duplicates collapse: {0} against {0,2}
		{name: "duplicate selections are a set", key: `[0,2]`, answer: `[0,0]`, points: 10, isCorrect: false, score: 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := GradeMultipleChoice(mcQuestion(tc.key, tc.points, true), []byte(tc.answer))
			assertResult(t, got, tc.isCorrect, tc.score)
		})
	}
}

// Partial-credit score must not decrease when another correct option is
// selected, and must not increase when another wrong one is.
func TestGradeMultipleChoice_PartialCreditMonotonic(t *testing.T) {
	q := mcQuestion(`[0,1,2,3]`, 12, true)

	prev := -1
	for _, answer := range []string{`[]`, `[0]`, `[0,1]`, `[0,1,2]`, `[0,1,2,3]`} {
		got := GradeMultipleChoice(q, []byte(answer))
		if got.Score < prev {
			t.Fatalf("score decreased from %d to %d when adding a correct option (%s)", prev, got.Score, answer)
		}
		prev = got.Score
	}

	prev = 13
	for _, answer := range []string{`[0,1]`, `[0,1,5]`, `[0,1,5,6]`, `[0,1,5,6,7]`} {
		got := GradeMultipleChoice(q, []byte(answer))
		if got.Score > prev {
			t.Fatalf("score increased from %d to %d when adding a wrong option (%s)", prev, got.Score, answer)
		}
		if got.Score < 0 {
			t.Fatalf("score went negative: %d (%s)", got.Score, answer)
		}
		prev = got.Score
	}
}

func TestGradeFillBlank(t *testing.T) {
	q := func(key string, points int) *model.Question {
		return &model.Question{ID: 2, Type: model.QuestionFillBlank, CorrectAnswer: datatypes.JSON(key), Points: points}
	}

	tests := []struct {
		name      string
		key       string
		answer    string
		points    int
		isCorrect bool
		score     int
	}{
		{name: "all match", key: `["Paris","Seine"]`, answer: `["Paris","Seine"]`, points: 10, isCorrect: true, score: 10},
		{name: "case insensitive", key: `["Paris","Seine"]`, answer: `["paris","Seine"]`, points: 10, isCorrect: true, score: 10},
		{name: "whitespace trimmed", key: `["paris"]`, answer: `[" Paris "]`, points: 10, isCorrect: true, score: 10},
		{name: "half match", key: `["Paris","Seine"]`, answer: `["Paris","Loire"]`, points: 10, isCorrect: false, score: 5},
		{name: "short answer counts missing as wrong", key: `["a","b","c"]`, answer: `["a"]`, points: 9, isCorrect: false, score: 3},
		{name: "no match", key: `["a","b"]`, answer: `["x","y"]`, points: 10, isCorrect: false, score: 0},
		{name: "rounding", key: `["a","b","c"]`, answer: `["a","b","x"]`, points: 10, isCorrect: false, score: 7},
		{name: "malformed answer", key: `["a"]`, answer: `5`, isCorrect: false, score: 0},
		{name: "malformed key", key: `"a"`, answer: `["a"]`, isCorrect: false, score: 0},
		{name: "empty key", key: `[]`, answer: `[]`, isCorrect: false, score: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := GradeFillBlank(q(tc.key, tc.points), []byte(tc.answer))
			assertResult(t, got, tc.isCorrect, tc.score)
		})
	}
}

func TestGradeMatching(t *testing.T) {
	terms, _ := json.Marshal([]model.MatchingTerm{
		{Term: "HTTP", Definition: "application protocol"},
		{Term: "TCP", Definition: "transport protocol"},
	})
	q := &model.Question{ID: 3, Type: model.QuestionMatching, Terms: datatypes.JSON(terms), Points: 10}

	tests := []struct {
		name      string
		answer    string
		isCorrect bool
		score     int
	}{
		{name: "all pairs", answer: `{"HTTP":"application protocol","TCP":"transport protocol"}`, isCorrect: true, score: 10},
		{name: "one of two", answer: `{"HTTP":"application protocol","TCP":"application protocol"}`, isCorrect: false, score: 5},
		{name: "missing term", answer: `{"HTTP":"application protocol"}`, isCorrect: false, score: 5},
		{name: "exact equality not case folded", answer: `{"HTTP":"Application Protocol","TCP":"transport protocol"}`, isCorrect: false, score: 5},
		{name: "empty map", answer: `{}`, isCorrect: false, score: 0},
		{name: "malformed", answer: `[1,2]`, isCorrect: false, score: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := GradeMatching(q, []byte(tc.answer))
			assertResult(t, got, tc.isCorrect, tc.score)
		})
	}
}

func TestGradeMatching_NoTerms(t *testing.T) {
	q := &model.Question{ID: 4, Type: model.QuestionMatching, Points: 10}
	got := GradeMatching(q, []byte(`{"a":"b"}`))
	assertResult(t, got, false, 0)
}

func TestDecodeText(t *testing.T) {
	if got := DecodeText([]byte(`"an essay"`)); got != "an essay" {
		t.Errorf("DecodeText json string = %q, want %q", got, "an essay")
	}
	if got := DecodeText([]byte(`plain text`)); got != "plain text" {
		t.Errorf("DecodeText raw = %q, want %q", got, "plain text")
	}
}

func assertResult(t *testing.T, got Result, isCorrect bool, score int) {
	t.Helper()
	if got.IsCorrect != isCorrect {
		t.Errorf("IsCorrect = %v, want %v", got.IsCorrect, isCorrect)
	}
	if got.Score != score {
		t.Errorf("Score = %d, want %d", got.Score, score)
	}
}
