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

type MaterialController struct {
	materialService  service.MaterialService
	generatorService service.QuestionGeneratorService
}

func NewMaterialController(materialService service.MaterialService, generatorService service.QuestionGeneratorService) *MaterialController {
	return &MaterialController{materialService: materialService, generatorService: generatorService}
}

// UploadMaterial godoc
// @Summary (Teacher) Upload a study material
// @Description Upload a material file. The optional content_text field carries the extracted text used for AI question generation.
// @Tags Teacher - Materials
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Material file"
// @Param title formData string true "Material title"
// @Param exam_id formData int false "Exam to attach the material to"
// @Param content_text formData string false "Extracted text content"
// @Success 201 {object} dto.MaterialResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Router /admin/materials [post]
// @Security BearerAuth
func (c *MaterialController) UploadMaterial(ctx *gin.Context) {
	header, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Material file is required", Details: []string{err.Error()}})
		return
	}
	title := ctx.PostForm("title")
	if title == "" {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Material title is required"})
		return
	}

	var examID *uint
	if raw := ctx.PostForm("exam_id"); raw != "" {
		val, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid exam_id format"})
			return
		}
		id := uint(val)
		examID = &id
	}

	material, err := c.materialService.Upload(ctx.Request.Context(), examID, middleware.UserID(ctx), title, header, ctx.PostForm("content_text"))
	if err != nil {
		log.Error().Err(err).Msg("UploadMaterial: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to upload material", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, material)
}

// ListMaterials godoc
// @Summary (Teacher) List an exam's materials
// @Tags Teacher - Materials
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Success 200 {array} dto.MaterialResponseDTO
// @Router /admin/exams/{exam_id}/materials [get]
// @Security BearerAuth
func (c *MaterialController) ListMaterials(ctx *gin.Context) {
	examID, ok := pathID(ctx, "exam_id")
	if !ok {
		return
	}
	materials, err := c.materialService.ListByExam(ctx.Request.Context(), examID)
	if err != nil {
		log.Error().Err(err).Msg("ListMaterials: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to list materials", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, materials)
}

// DeleteMaterial godoc
// @Summary (Teacher) Delete a material
// @Tags Teacher - Materials
// @Produce json
// @Param material_id path int true "Material ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse "Material not found"
// @Router /admin/materials/{material_id} [delete]
// @Security BearerAuth
func (c *MaterialController) DeleteMaterial(ctx *gin.Context) {
	materialID, ok := pathID(ctx, "material_id")
	if !ok {
		return
	}
	if err := c.materialService.Delete(ctx.Request.Context(), materialID); err != nil {
		respondNotFoundOrError(ctx, err, "Material not found", "Failed to delete material")
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Material deleted"})
}

// GenerateQuestions godoc
// @Summary (Teacher) Generate question proposals from a material
// @Description Draft questions from a material's text with AI. Proposals are returned for review, nothing is saved.
// @Tags Teacher - Materials
// @Accept json
// @Produce json
// @Param request body dto.GenerateQuestionsDTO true "Generation parameters"
// @Success 200 {array} dto.GeneratedQuestionDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 404 {object} dto.ErrorResponse "Material not found"
// @Failure 503 {object} dto.ErrorResponse "AI generation unavailable"
// @Router /admin/questions/generate [post]
// @Security BearerAuth
func (c *MaterialController) GenerateQuestions(ctx *gin.Context) {
	var req dto.GenerateQuestionsDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	questions, err := c.generatorService.GenerateQuestions(ctx.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGenerationUnavailable):
			ctx.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Message: "AI question generation is not configured"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Material not found"})
		default:
			log.Error().Err(err).Msg("GenerateQuestions: service error")
			ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to generate questions", Details: []string{err.Error()}})
		}
		return
	}
	ctx.JSON(http.StatusOK, questions)
}
