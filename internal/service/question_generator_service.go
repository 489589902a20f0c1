package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/nfcelis/examspot/config"
	"github.com/nfcelis/examspot/internal/dto"
	"github.com/nfcelis/examspot/internal/model"
	"github.com/nfcelis/examspot/internal/repository"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// QuestionGeneratorService drafts exam questions from an uploaded material's
// text. Generated questions are returned as proposals for teacher review,
// never inserted directly.
type QuestionGeneratorService interface {
	GenerateQuestions(ctx context.Context, req dto.GenerateQuestionsDTO) ([]dto.GeneratedQuestionDTO, error)
}

type questionGeneratorService struct {
	client       *genai.GenerativeModel
	materialRepo repository.MaterialRepository
}

func NewQuestionGeneratorService(materialRepo repository.MaterialRepository, cfg *config.Config) (QuestionGeneratorService, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. AI question generation is disabled.")
		return &questionGeneratorService{materialRepo: materialRepo, client: nil}, nil
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	model := client.GenerativeModel("gemini-1.5-flash")
	return &questionGeneratorService{client: model, materialRepo: materialRepo}, nil
}

var ErrGenerationUnavailable = fmt.Errorf("AI question generation is not configured")

func (s *questionGeneratorService) GenerateQuestions(ctx context.Context, req dto.GenerateQuestionsDTO) ([]dto.GeneratedQuestionDTO, error) {
	if s.client == nil {
		return nil, ErrGenerationUnavailable
	}

	material, err := s.materialRepo.FindByID(req.MaterialID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(material.ContentText) == "" {
		return nil, fmt.Errorf("material %d has no extracted text to generate from", material.ID)
	}

	resp, err := s.client.GenerateContent(ctx, genai.Text(buildGenerationPrompt(material, req)))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error during question generation: %w", err)
	}

	raw := collectResponseText(resp)
	body, ok := extractJSONArray(raw)
	if !ok {
		log.Warn().Str("rawResponse", raw).Msg("Gemini returned no JSON array for question generation")
		return nil, fmt.Errorf("no question list in AI response")
	}

	var generated []dto.GeneratedQuestionDTO
	if err := json.Unmarshal([]byte(body), &generated); err != nil {
		return nil, fmt.Errorf("malformed question list in AI response: %w", err)
	}

	return sanitizeGenerated(generated), nil
}

func buildGenerationPrompt(material *model.Material, req dto.GenerateQuestionsDTO) string {
	var b strings.Builder
	b.WriteString("You are an expert exam author. Create exam questions from the study material below.\n\n")
	b.WriteString(fmt.Sprintf("Material: %s\n\n%s\n\n", material.Title, material.ContentText))
	b.WriteString(fmt.Sprintf("Create exactly %d questions of difficulty %q.\n", req.QuestionCount, req.Difficulty))
	b.WriteString(fmt.Sprintf("Allowed question types: %s.\n\n", strings.Join(req.QuestionTypes, ", ")))
	b.WriteString("Respond ONLY with a valid JSON array, one object per question, in exactly this format:\n")
	b.WriteString(`[{"type": "multiple_choice", "question_text": "string", "options": ["string"], "correct_answer": 0, "terms": [{"term": "string", "definition": "string"}], "points": 10, "explanation": "string"}]` + "\n\n")
	b.WriteString("Rules: for multiple_choice give 4 options and the correct option index in correct_answer; ")
	b.WriteString("for fill_blank put one or more blanks as ___ in question_text and a string array of expected answers in correct_answer; ")
	b.WriteString("for matching fill terms with 3-5 term/definition pairs and omit options and correct_answer; ")
	b.WriteString("for open_ended put a model answer in correct_answer as a string.")
	return b.String()
}

func extractJSONArray(raw string) (string, bool) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// sanitizeGenerated drops proposals of an unknown type and fills default
// points so the review form never shows a zero-point question.
func sanitizeGenerated(generated []dto.GeneratedQuestionDTO) []dto.GeneratedQuestionDTO {
	kept := make([]dto.GeneratedQuestionDTO, 0, len(generated))
	for _, q := range generated {
		switch model.QuestionType(q.Type) {
		case model.QuestionMultipleChoice, model.QuestionOpenEnded, model.QuestionFillBlank, model.QuestionMatching:
		default:
			log.Warn().Str("type", q.Type).Msg("dropping generated question of unknown type")
			continue
		}
		if q.Points <= 0 {
			q.Points = 10
		}
		kept = append(kept, q)
	}
	return kept
}
