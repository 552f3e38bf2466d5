package controllers

import (
	"strconv"

	"ieltsprep/backend/middleware"
	"ieltsprep/backend/models"
	"ieltsprep/backend/services/scoring"
	"ieltsprep/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// recordAttempt grades answers against questions and stores the attempt.
func recordAttempt(c *fiber.Ctx, db *gorm.DB, testType models.TestType, testID uint,
	questions []models.TestQuestion, answers map[string]string, timeSpent int) error {
	user := middleware.CurrentUser(c)
	result := scoring.Grade(questions, answers)

	attempt := models.Attempt{
		UserID:     user.ID,
		TestType:   testType,
		TestID:     testID,
		Answers:    result.Answers,
		Score:      result.Score,
		Total:      result.Total,
		Percentage: result.Percentage,
		BandScore:  result.BandScore,
		TimeSpent:  timeSpent,
	}
	if err := db.WithContext(c.UserContext()).Create(&attempt).Error; err != nil {
		return utils.NewInfrastructureError("Could not save attempt", err)
	}

	return utils.Created(c, "Answers submitted successfully", &attempt)
}

// listAttempts pages through the current user's attempts of one test type.
func listAttempts(c *fiber.Ctx, db *gorm.DB, testType models.TestType) error {
	page, pageSize, offset := utils.PageParams(c)
	user := middleware.CurrentUser(c)

	query := db.Model(&models.Attempt{}).Where("user_id = ? AND test_type = ?", user.ID, testType)
	if raw := c.Query("testId"); raw != "" {
		testID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.NewValidationError("Validation failed", utils.FieldError{Field: "testId", Message: "must be a positive integer"})
		}
		query = query.Where("test_id = ?", testID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.NewInfrastructureError("Failed to fetch attempts", err)
	}

	attempts := []models.Attempt{}
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&attempts).Error; err != nil {
		return utils.NewInfrastructureError("Failed to fetch attempts", err)
	}

	return utils.Paginate(c, "Attempts retrieved successfully", attempts, total, page, pageSize)
}

func publicQuestions(qs []models.TestQuestion) []models.TestQuestion {
	out := make([]models.TestQuestion, len(qs))
	for i, q := range qs {
		out[i] = q.Public()
	}
	return out
}
