package grading

import (
	"encoding/json"
	"fmt"

	"github.com/nfcelis/examspot/internal/model"
)

// Answer payloads arrive as raw jsonb whose shape depends on the question
// type. They are decoded exactly once, here, into one concrete variant per
// type; the scorers never type-sniff raw JSON. A decode failure means the
// payload is malformed for that question type, which grading treats as zero
// credit rather than an error of the grading pass.

type SingleChoice int

type MultiChoice []int

type Blanks []string

type Matches map[string]string

type Text string

func decodeSingleChoice(raw []byte) (SingleChoice, error) {
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("not a single option index: %w", err)
	}
	return SingleChoice(v), nil
}

func decodeMultiChoice(raw []byte) (MultiChoice, error) {
	var v []int
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("not an option index array: %w", err)
	}
	return MultiChoice(v), nil
}

func decodeBlanks(raw []byte) (Blanks, error) {
	var v []string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("not a string array: %w", err)
	}
	return Blanks(v), nil
}

func decodeMatches(raw []byte) (Matches, error) {
	var v map[string]string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("not a term/definition map: %w", err)
	}
	return Matches(v), nil
}

// DecodeText extracts the free-text body of an open-ended answer. A bare
// JSON string decodes to its content; anything else is kept verbatim so a
// misencoded answer still reaches the AI grader instead of being dropped.
func DecodeText(raw []byte) Text {
	var v string
	if err := json.Unmarshal(raw, &v); err == nil {
		return Text(v)
	}
	return Text(raw)
}

// ValidateChoiceKey checks a multiple_choice answer key at authoring time:
// either a single option index or a non-empty index array, every index in
// range.
func ValidateChoiceKey(raw []byte, optionCount int) error {
	if len(raw) == 0 {
		return fmt.Errorf("multiple_choice question needs a correct answer")
	}
	if idx, err := decodeSingleChoice(raw); err == nil {
		if int(idx) < 0 || int(idx) >= optionCount {
			return fmt.Errorf("correct answer index %d out of range", idx)
		}
		return nil
	}
	indices, err := decodeMultiChoice(raw)
	if err != nil {
		return fmt.Errorf("correct answer must be an option index or an index array")
	}
	if len(indices) == 0 {
		return fmt.Errorf("correct answer index array is empty")
	}
	for _, idx := range indices {
		if idx < 0 || idx >= optionCount {
			return fmt.Errorf("correct answer index %d out of range", idx)
		}
	}
	return nil
}

// ValidateBlankKey checks a fill_blank answer key: a non-empty array of
// expected strings, one per blank.
func ValidateBlankKey(raw []byte) error {
	if len(raw) == 0 {
		return fmt.Errorf("fill_blank question needs a correct answer")
	}
	blanks, err := decodeBlanks(raw)
	if err != nil {
		return fmt.Errorf("correct answer must be a string array")
	}
	if len(blanks) == 0 {
		return fmt.Errorf("correct answer array is empty")
	}
	return nil
}

// DecodeTerms unpacks a matching question's term/definition pairs from its
// jsonb column.
func DecodeTerms(q *model.Question) ([]model.MatchingTerm, error) {
	if len(q.Terms) == 0 {
		return nil, fmt.Errorf("question %d has no terms", q.ID)
	}
	var terms []model.MatchingTerm
	if err := json.Unmarshal(q.Terms, &terms); err != nil {
		return nil, fmt.Errorf("question %d terms malformed: %w", q.ID, err)
	}
	return terms, nil
}
