package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nfcelis/examspot/internal/dto"
	"github.com/nfcelis/examspot/internal/middleware"
	"github.com/nfcelis/examspot/internal/service"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type AttemptController struct {
	attemptService service.AttemptService
}

func NewAttemptController(attemptService service.AttemptService) *AttemptController {
	return &AttemptController{attemptService: attemptService}
}

// StartAttempt godoc
// @Summary (Student) Start an exam attempt
// @Description Open a new attempt on a published exam. A student can have at most one attempt in progress per exam.
// @Tags Student - Attempts
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Success 201 {object} dto.AttemptDTO
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Failure 409 {object} dto.ErrorResponse "Attempt already in progress or exam not open"
// @Router /exams/{exam_id}/attempts [post]
// @Security BearerAuth
func (c *AttemptController) StartAttempt(ctx *gin.Context) {
	examID, ok := pathID(ctx, "exam_id")
	if !ok {
		return
	}
	attempt, err := c.attemptService.StartAttempt(examID, middleware.UserID(ctx))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Exam not found"})
		case errors.Is(err, service.ErrActiveAttemptExists):
			ctx.JSON(http.StatusConflict, dto.ErrorResponse{Message: "An attempt on this exam is already in progress"})
		case errors.Is(err, service.ErrExamNotTakeable):
			ctx.JSON(http.StatusConflict, dto.ErrorResponse{Message: "Exam is not open for taking"})
		default:
			log.Error().Err(err).Msg("StartAttempt: service error")
			ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to start attempt", Details: []string{err.Error()}})
		}
		return
	}
	ctx.JSON(http.StatusCreated, attempt)
}

// SaveAnswer godoc
// @Summary (Student) Autosave an answer
// @Description Record the current answer for one question of an in-progress attempt. Saves are buffered and flushed in the background; repeated saves overwrite.
// @Tags Student - Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param answer body dto.SaveAnswerDTO true "Answer payload"
// @Success 200 {object} dto.MessageResponse
// @Failure 403 {object} dto.ErrorResponse "Not the attempt owner"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Attempt already completed"
// @Router /attempts/{attempt_id}/answers [put]
// @Security BearerAuth
func (c *AttemptController) SaveAnswer(ctx *gin.Context) {
	attemptID, ok := pathID(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.SaveAnswerDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	if err := c.attemptService.SaveAnswer(attemptID, middleware.UserID(ctx), req); err != nil {
		respondAttemptError(ctx, err, "Failed to save answer")
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Answer saved"})
}

// SubmitAttempt godoc
// @Summary (Student) Submit an attempt for grading
// @Description Flush buffered answers, grade everything, and close the attempt. Submitting twice returns a conflict; the first submission's scores stand.
// @Tags Student - Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptResultDTO
// @Failure 403 {object} dto.ErrorResponse "Not the attempt owner"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Attempt already completed"
// @Router /attempts/{attempt_id}/submit [post]
// @Security BearerAuth
func (c *AttemptController) SubmitAttempt(ctx *gin.Context) {
	attemptID, ok := pathID(ctx, "attempt_id")
	if !ok {
		return
	}
	result, err := c.attemptService.SubmitAttempt(ctx.Request.Context(), attemptID, middleware.UserID(ctx))
	if err != nil {
		respondAttemptError(ctx, err, "Failed to submit attempt")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetAttempt godoc
// @Summary (Student) Get an attempt with its results
// @Description Attempt state plus the per-question grades once completed.
// @Tags Student - Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptResultDTO
// @Failure 403 {object} dto.ErrorResponse "Not the attempt owner"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /attempts/{attempt_id} [get]
// @Security BearerAuth
func (c *AttemptController) GetAttempt(ctx *gin.Context) {
	attemptID, ok := pathID(ctx, "attempt_id")
	if !ok {
		return
	}
	result, err := c.attemptService.GetAttempt(attemptID, middleware.UserID(ctx))
	if err != nil {
		respondAttemptError(ctx, err, "Failed to get attempt")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// ListMyAttempts godoc
// @Summary (Student) List own attempt history
// @Tags Student - Attempts
// @Produce json
// @Success 200 {array} dto.AttemptSummaryDTO
// @Router /attempts [get]
// @Security BearerAuth
func (c *AttemptController) ListMyAttempts(ctx *gin.Context) {
	attempts, err := c.attemptService.ListMyAttempts(middleware.UserID(ctx))
	if err != nil {
		log.Error().Err(err).Msg("ListMyAttempts: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to list attempts", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

func respondAttemptError(ctx *gin.Context, err error, errorMsg string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Attempt not found"})
	case errors.Is(err, service.ErrNotAttemptOwner):
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Message: "You do not own this attempt"})
	case errors.Is(err, service.ErrAttemptCompleted):
		ctx.JSON(http.StatusConflict, dto.ErrorResponse{Message: "Attempt is already completed"})
	default:
		log.Error().Err(err).Msg(errorMsg)
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: errorMsg, Details: []string{err.Error()}})
	}
}
