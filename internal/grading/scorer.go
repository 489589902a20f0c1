package grading

import (
	"math"
	"strings"

	"github.com/nfcelis/examspot/internal/model"
)

// Result is a per-question grade. Score is always in [0, question.Points];
// malformed or missing answers grade to the zero value rather than an error,
// so one bad payload can never fail a whole grading pass.
type Result struct {
	IsCorrect bool
	Score     int
}

// GradeMultipleChoice scores both flavors of multiple choice. A single-index
// answer key is all-or-nothing. An index-array key is compared as sets; exact
// equality earns full points, and when partial credit is enabled a partially
// right selection earns
//
//	round(max(0, (correctSelected-incorrectSelected)/|correctSet|) * points)
//
// which can reach zero but never goes negative.
func GradeMultipleChoice(q *model.Question, userAnswer []byte) Result {
	if single, err := decodeSingleChoice(q.CorrectAnswer); err == nil {
		picked, err := decodeSingleChoice(userAnswer)
		if err != nil {
			return Result{}
		}
		if picked == single {
			return Result{IsCorrect: true, Score: q.Points}
		}
		return Result{}
	}

	key, err := decodeMultiChoice(q.CorrectAnswer)
	if err != nil || len(key) == 0 {
		return Result{}
	}
	picked, err := decodeMultiChoice(userAnswer)
	if err != nil {
		return Result{}
	}

	correctSet := make(map[int]struct{}, len(key))
	for _, idx := range key {
		correctSet[idx] = struct{}{}
	}
	pickedSet := make(map[int]struct{}, len(picked))
	for _, idx := range picked {
		pickedSet[idx] = struct{}{}
	}

	exact := len(pickedSet) == len(correctSet)
	correctSelected, incorrectSelected := 0, 0
	for idx := range pickedSet {
		if _, ok := correctSet[idx]; ok {
			correctSelected++
		} else {
			incorrectSelected++
			exact = false
		}
	}

	if exact && correctSelected == len(correctSet) {
		return Result{IsCorrect: true, Score: q.Points}
	}

	if q.AllowPartialCredit {
		fraction := float64(correctSelected-incorrectSelected) / float64(len(correctSet))
		if fraction < 0 {
			fraction = 0
		}
		return Result{Score: int(math.Round(fraction * float64(q.Points)))}
	}
	return Result{}
}

// GradeFillBlank compares blanks element-wise, trimmed and case-folded, and
// awards round(matched/total * points). Correct only when every blank
// matches.
func GradeFillBlank(q *model.Question, userAnswer []byte) Result {
	key, err := decodeBlanks(q.CorrectAnswer)
	if err != nil || len(key) == 0 {
		return Result{}
	}
	filled, err := decodeBlanks(userAnswer)
	if err != nil {
		return Result{}
	}

	matched := 0
	for i, want := range key {
		var got string
		if i < len(filled) {
			got = filled[i]
		}
		if normalizeBlank(want) == normalizeBlank(got) {
			matched++
		}
	}

	return Result{
		IsCorrect: matched == len(key),
		Score:     int(math.Round(float64(matched) / float64(len(key)) * float64(q.Points))),
	}
}

func normalizeBlank(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// GradeMatching counts exact definition matches per term and awards
// round(matchedPairs/totalPairs * points).
func GradeMatching(q *model.Question, userAnswer []byte) Result {
	terms, err := DecodeTerms(q)
	if err != nil || len(terms) == 0 {
		return Result{}
	}
	matches, err := decodeMatches(userAnswer)
	if err != nil || matches == nil {
		return Result{}
	}

	matched := 0
	for _, pair := range terms {
		if matches[pair.Term] == pair.Definition {
			matched++
		}
	}

	return Result{
		IsCorrect: matched == len(terms),
		Score:     int(math.Round(float64(matched) / float64(len(terms)) * float64(q.Points))),
	}
}
