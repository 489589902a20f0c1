package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nfcelis/examspot/internal/dto"
	"github.com/nfcelis/examspot/internal/middleware"
	"github.com/nfcelis/examspot/internal/service"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ExamController struct {
	examService     service.ExamService
	questionService service.QuestionService
	attemptService  service.AttemptService
}

func NewExamController(examService service.ExamService, questionService service.QuestionService, attemptService service.AttemptService) *ExamController {
	return &ExamController{examService: examService, questionService: questionService, attemptService: attemptService}
}

// CreateExam godoc
// @Summary (Teacher) Create an exam
// @Description Create a new exam, in draft status unless stated otherwise.
// @Tags Teacher - Exams
// @Accept json
// @Produce json
// @Param exam body dto.ExamCreateDTO true "Exam details"
// @Success 201 {object} dto.ExamResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Router /admin/exams [post]
// @Security BearerAuth
func (c *ExamController) CreateExam(ctx *gin.Context) {
	var req dto.ExamCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	exam, err := c.examService.CreateExam(middleware.UserID(ctx), req)
	if err != nil {
		log.Error().Err(err).Msg("CreateExam: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to create exam", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, exam)
}

// ListExams godoc
// @Summary (Teacher) List own exams
// @Description List the caller's exams, optionally filtered by status or a title search.
// @Tags Teacher - Exams
// @Produce json
// @Param status query string false "Filter by status" Enums(draft, published, archived)
// @Param search query string false "Title search"
// @Success 200 {array} dto.ExamSummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Router /admin/exams [get]
// @Security BearerAuth
func (c *ExamController) ListExams(ctx *gin.Context) {
	var filter dto.ExamFilterDTO
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid filter", Details: []string{err.Error()}})
		return
	}

	exams, err := c.examService.ListExams(filter, middleware.UserID(ctx))
	if err != nil {
		log.Error().Err(err).Msg("ListExams: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to list exams", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, exams)
}

// GetExam godoc
// @Summary (Teacher) Get an exam with its questions
// @Description Full author view of an exam, answer keys included.
// @Tags Teacher - Exams
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Success 200 {object} dto.ExamResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /admin/exams/{exam_id} [get]
// @Security BearerAuth
func (c *ExamController) GetExam(ctx *gin.Context) {
	examID, ok := pathID(ctx, "exam_id")
	if !ok {
		return
	}
	exam, err := c.examService.GetExam(examID)
	if err != nil {
		respondNotFoundOrError(ctx, err, "Exam not found", "Failed to get exam")
		return
	}
	ctx.JSON(http.StatusOK, exam)
}

// UpdateExam godoc
// @Summary (Teacher) Update an exam
// @Description Update exam fields; absent fields are left unchanged. Publishing happens by setting status to published.
// @Tags Teacher - Exams
// @Accept json
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Param exam body dto.ExamUpdateDTO true "Fields to update"
// @Success 200 {object} dto.ExamResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /admin/exams/{exam_id} [put]
// @Security BearerAuth
func (c *ExamController) UpdateExam(ctx *gin.Context) {
	examID, ok := pathID(ctx, "exam_id")
	if !ok {
		return
	}
	var req dto.ExamUpdateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	exam, err := c.examService.UpdateExam(examID, req)
	if err != nil {
		respondNotFoundOrError(ctx, err, "Exam not found", "Failed to update exam")
		return
	}
	ctx.JSON(http.StatusOK, exam)
}

// DeleteExam godoc
// @Summary (Teacher) Delete an exam
// @Tags Teacher - Exams
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /admin/exams/{exam_id} [delete]
// @Security BearerAuth
func (c *ExamController) DeleteExam(ctx *gin.Context) {
	examID, ok := pathID(ctx, "exam_id")
	if !ok {
		return
	}
	if err := c.examService.DeleteExam(examID); err != nil {
		respondNotFoundOrError(ctx, err, "Exam not found", "Failed to delete exam")
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Exam deleted"})
}

// ListExamAttempts godoc
// @Summary (Teacher) List an exam's attempts
// @Description Results view: every student attempt on the exam, with scores where completed.
// @Tags Teacher - Exams
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Success 200 {array} dto.AttemptSummaryDTO
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /admin/exams/{exam_id}/attempts [get]
// @Security BearerAuth
func (c *ExamController) ListExamAttempts(ctx *gin.Context) {
	examID, ok := pathID(ctx, "exam_id")
	if !ok {
		return
	}
	attempts, err := c.attemptService.ListExamAttempts(examID)
	if err != nil {
		respondNotFoundOrError(ctx, err, "Exam not found", "Failed to list exam attempts")
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

// AddQuestion godoc
// @Summary (Teacher) Add a question to an exam
// @Description Add a question. The answer key is validated against the question type.
// @Tags Teacher - Questions
// @Accept json
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Param question body dto.QuestionCreateDTO true "Question details"
// @Success 201 {object} dto.QuestionResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid question or answer key"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /admin/exams/{exam_id}/questions [post]
// @Security BearerAuth
func (c *ExamController) AddQuestion(ctx *gin.Context) {
	examID, ok := pathID(ctx, "exam_id")
	if !ok {
		return
	}
	var req dto.QuestionCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	question, err := c.questionService.AddQuestion(examID, req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Exam not found"})
			return
		}
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid question", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, question)
}

// UpdateQuestion godoc
// @Summary (Teacher) Update a question
// @Tags Teacher - Questions
// @Accept json
// @Produce json
// @Param question_id path int true "Question ID"
// @Param question body dto.QuestionCreateDTO true "Question details"
// @Success 200 {object} dto.QuestionResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid question or answer key"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /admin/questions/{question_id} [put]
// @Security BearerAuth
func (c *ExamController) UpdateQuestion(ctx *gin.Context) {
	questionID, ok := pathID(ctx, "question_id")
	if !ok {
		return
	}
	var req dto.QuestionCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	question, err := c.questionService.UpdateQuestion(questionID, req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Question not found"})
			return
		}
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid question", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, question)
}

// DeleteQuestion godoc
// @Summary (Teacher) Delete a question
// @Tags Teacher - Questions
// @Produce json
// @Param question_id path int true "Question ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /admin/questions/{question_id} [delete]
// @Security BearerAuth
func (c *ExamController) DeleteQuestion(ctx *gin.Context) {
	questionID, ok := pathID(ctx, "question_id")
	if !ok {
		return
	}
	if err := c.questionService.DeleteQuestion(questionID); err != nil {
		respondNotFoundOrError(ctx, err, "Question not found", "Failed to delete question")
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Question deleted"})
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(id), true
}

func respondNotFoundOrError(ctx *gin.Context, err error, notFoundMsg, errorMsg string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: notFoundMsg})
		return
	}
	log.Error().Err(err).Msg(errorMsg)
	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: errorMsg, Details: []string{err.Error()}})
}
