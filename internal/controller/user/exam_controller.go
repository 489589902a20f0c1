package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nfcelis/examspot/internal/dto"
	"github.com/nfcelis/examspot/internal/service"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ExamController struct {
	examService service.ExamService
}

func NewExamController(examService service.ExamService) *ExamController {
	return &ExamController{examService: examService}
}

// ListExams godoc
// @Summary (Student) List published exams
// @Description List exams open for taking, optionally filtered by a title search.
// @Tags Student - Exams
// @Produce json
// @Param search query string false "Title search"
// @Success 200 {array} dto.ExamSummaryDTO
// @Router /exams [get]
// @Security BearerAuth
func (c *ExamController) ListExams(ctx *gin.Context) {
	exams, err := c.examService.ListPublished(ctx.Query("search"))
	if err != nil {
		log.Error().Err(err).Msg("ListExams: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to list exams", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, exams)
}

// GetExam godoc
// @Summary (Student) Get an exam for taking
// @Description Exam metadata and its questions without answer keys or explanations.
// @Tags Student - Exams
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Success 200 {object} dto.ExamTakingDTO
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Failure 409 {object} dto.ErrorResponse "Exam not open for taking"
// @Router /exams/{exam_id} [get]
// @Security BearerAuth
func (c *ExamController) GetExam(ctx *gin.Context) {
	examID, ok := pathID(ctx, "exam_id")
	if !ok {
		return
	}
	exam, questions, err := c.examService.GetExamForTaking(examID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Exam not found"})
		case errors.Is(err, service.ErrExamNotTakeable):
			ctx.JSON(http.StatusConflict, dto.ErrorResponse{Message: "Exam is not open for taking"})
		default:
			log.Error().Err(err).Msg("GetExam: service error")
			ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to get exam", Details: []string{err.Error()}})
		}
		return
	}
	ctx.JSON(http.StatusOK, dto.ExamTakingDTO{Exam: *exam, Questions: questions})
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
