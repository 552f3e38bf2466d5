package controllers

import (
	"strconv"
	"strings"

	"ieltsprep/backend/config"
	"ieltsprep/backend/models"
	"ieltsprep/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type QuestionController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewQuestionController(db *gorm.DB, cfg *config.Config) *QuestionController {
	return &QuestionController{DB: db, Cfg: cfg}
}

var questionTypes = map[models.QuestionType]bool{
	models.QuestionMultipleChoice: true,
	models.QuestionTrueFalse:      true,
	models.QuestionShortAnswer:    true,
	models.QuestionTask:           true,
}

// ListQuestions godoc
// @Summary Browse the question bank
// @Tags questions
// @Produce json
// @Param section query string false "Section filter"
// @Param type query string false "Question type filter"
// @Param fileId query int false "Questions extracted from this file"
// @Param search query string false "Match question text or topic"
// @Param sort query string false "newest|oldest" default(newest)
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /questions [get]
func (qc *QuestionController) ListQuestions(c *fiber.Ctx) error {
	page, pageSize, offset := utils.PageParams(c)

	query := qc.DB.Model(&models.Question{})
	var fields []utils.FieldError

	if section := strings.ToLower(c.Query("section")); section != "" {
		query = query.Where("section = ?", section)
	}
	if qt := models.QuestionType(strings.ToLower(c.Query("type"))); qt != "" {
		if !questionTypes[qt] {
			fields = append(fields, utils.FieldError{Field: "type", Message: "is not a valid question type"})
		}
		query = query.Where("type = ?", qt)
	}
	if raw := c.Query("fileId"); raw != "" {
		fileID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || fileID == 0 {
			fields = append(fields, utils.FieldError{Field: "fileId", Message: "must be a positive integer"})
		}
		query = query.Where("source_file_id = ?", fileID)
	}
	if search := strings.ToLower(strings.TrimSpace(c.Query("search"))); search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(text) LIKE ? OR LOWER(topic) LIKE ?", like, like)
	}

	order := "id DESC"
	switch c.Query("sort", "newest") {
	case "newest":
	case "oldest":
		order = "id ASC"
	default:
		fields = append(fields, utils.FieldError{Field: "sort", Message: "must be one of: newest, oldest"})
	}
	if len(fields) > 0 {
		return utils.NewValidationError("Validation failed", fields...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.NewInfrastructureError("Failed to fetch questions", err)
	}

	questions := []models.Question{}
	if err := query.Order(order).Offset(offset).Limit(pageSize).Find(&questions).Error; err != nil {
		return utils.NewInfrastructureError("Failed to fetch questions", err)
	}

	return utils.Paginate(c, "Questions retrieved successfully", questions, total, page, pageSize)
}
