package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/nfcelis/examspot/config"
	"github.com/nfcelis/examspot/internal/grading"
	"github.com/nfcelis/examspot/internal/metrics"
	"github.com/nfcelis/examspot/internal/model"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// AIGraderService scores free-text open_ended answers through the LLM
// collaborator. It never returns an error: every failure mode (client not
// configured, API error, timeout, unparsable response) degrades to a
// deterministic fallback result flagged for manual review.
type AIGraderService interface {
	GradeOpenEnded(ctx context.Context, question *model.Question, userAnswer string) grading.AIResult
}

type aiGraderService struct {
	client *genai.GenerativeModel
	cfg    *config.Config
}

func NewAIGraderService(cfg *config.Config) (AIGraderService, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. AI grading will fall back to manual review for all open-ended answers.")
		return &aiGraderService{cfg: cfg, client: nil}, nil
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	model := client.GenerativeModel("gemini-1.5-flash")
	return &aiGraderService{client: model, cfg: cfg}, nil
}

const graderSystemInstruction = "You are an expert teacher evaluating student answers. Respond only with valid JSON."

func buildGradingPrompt(question *model.Question, userAnswer string) string {
	modelAnswer := string(grading.DecodeText(question.CorrectAnswer))

	var b strings.Builder
	b.WriteString("Evaluate this student answer:\n\n")
	b.WriteString(fmt.Sprintf("Question: %s\n", question.QuestionText))
	b.WriteString(fmt.Sprintf("Student answer: %s\n", userAnswer))
	b.WriteString(fmt.Sprintf("Model answer: %s\n", modelAnswer))
	b.WriteString(fmt.Sprintf("Maximum points: %d\n\n", question.Points))
	b.WriteString("Provide:\n")
	b.WriteString(fmt.Sprintf("1. A score (0-%d)\n", question.Points))
	b.WriteString("2. Constructive feedback (2-3 paragraphs)\n")
	b.WriteString("3. What was done well and what needs improvement\n\n")
	b.WriteString("Respond ONLY with valid JSON in exactly this format:\n")
	b.WriteString(`{"score": number, "feedback": "string", "strengths": ["string"], "improvements": ["string"]}`)
	return b.String()
}

func (s *aiGraderService) GradeOpenEnded(ctx context.Context, question *model.Question, userAnswer string) grading.AIResult {
	if s.client == nil {
		return fallbackResult()
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Grading.AITimeout)
	defer cancel()

	start := time.Now()
	resp, err := s.client.GenerateContent(ctx,
		genai.Text(graderSystemInstruction+"\n\n"+buildGradingPrompt(question, userAnswer)))
	metrics.AIGradingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Error().Err(err).Uint("questionID", question.ID).Msg("Gemini API error during open-ended grading")
		return fallbackResult()
	}

	raw := collectResponseText(resp)
	if raw == "" {
		log.Warn().Uint("questionID", question.ID).Msg("Gemini returned no text content for open-ended grading")
		return fallbackResult()
	}

	result, err := parseAIResult(raw)
	if err != nil {
		log.Warn().Err(err).Uint("questionID", question.ID).Str("rawResponse", raw).Msg("Failed to parse AI grading response")
		return fallbackResult()
	}
	return result
}

func collectResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

// extractJSON pulls the first JSON object out of free text; the model tends
// to wrap its JSON in prose or markdown fences despite instructions.
func extractJSON(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func parseAIResult(raw string) (grading.AIResult, error) {
	body, ok := extractJSON(raw)
	if !ok {
		return grading.AIResult{}, fmt.Errorf("no JSON object in response")
	}

	// Score and feedback are mandatory; a response missing either is
	// unusable and sends the answer to manual review.
	var probe struct {
		Score        *float64 `json:"score"`
		Feedback     *string  `json:"feedback"`
		Strengths    []string `json:"strengths"`
		Improvements []string `json:"improvements"`
	}
	if err := json.Unmarshal([]byte(body), &probe); err != nil {
		return grading.AIResult{}, fmt.Errorf("malformed JSON in response: %w", err)
	}
	if probe.Score == nil || probe.Feedback == nil {
		return grading.AIResult{}, fmt.Errorf("response JSON missing score or feedback")
	}

	result := grading.AIResult{
		Score:        *probe.Score,
		Feedback:     *probe.Feedback,
		Strengths:    probe.Strengths,
		Improvements: probe.Improvements,
	}
	if result.Strengths == nil {
		result.Strengths = []string{}
	}
	if result.Improvements == nil {
		result.Improvements = []string{}
	}
	return result, nil
}

func fallbackResult() grading.AIResult {
	return grading.AIResult{
		Score:        0,
		Feedback:     "Automatic evaluation is unavailable right now. This answer needs manual review by the teacher.",
		Strengths:    []string{},
		Improvements: []string{"Automatic evaluation could not be completed"},
		Degraded:     true,
	}
}
