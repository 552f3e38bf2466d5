package controllers

import (
	"ieltsprep/backend/config"
	"ieltsprep/backend/middleware"
	"ieltsprep/backend/models"
	"ieltsprep/backend/services/generator"
	"ieltsprep/backend/utils"
	"ieltsprep/backend/validators"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ReadingController struct {
	DB        *gorm.DB
	Cfg       *config.Config
	Generator generator.Generator
}

func NewReadingController(db *gorm.DB, cfg *config.Config, gen generator.Generator) *ReadingController {
	return &ReadingController{DB: db, Cfg: cfg, Generator: gen}
}

// GenerateTest godoc
// @Summary Generate and save a reading test
// @Description Generates one passage per requested section and stores the test
// @Tags reading
// @Accept json
// @Produce json
// @Param request body validators.ReadingTestRequest true "Test options"
// @Success 201 {object} utils.Envelope
// @Failure 400 {object} utils.Envelope
// @Failure 502 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /reading/generate-test [post]
func (rc *ReadingController) GenerateTest(c *fiber.Ctx) error {
	var input validators.ReadingTestRequest
	if err := validators.ParseBody(c, &input); err != nil {
		return err
	}

	test := models.ReadingTest{
		Title:      input.Title,
		Topic:      input.Topic,
		Difficulty: input.Difficulty,
		TimeLimit:  input.TimeLimit,
		CreatedBy:  middleware.CurrentUser(c).ID,
	}

	next := 1
	for i := 0; i < input.PassageCount; i++ {
		passage, err := rc.Generator.GeneratePassage(c.UserContext(), generator.PassageSpec{
			Topic:         input.Topic,
			Difficulty:    input.Difficulty,
			WordCount:     passageWords(input.Difficulty),
			QuestionCount: input.QuestionsPerPassage,
		})
		if err != nil {
			return err
		}

		test.Passages = append(test.Passages, models.ReadingPassage{
			Title:         passage.Title,
			Content:       passage.Content,
			SequenceOrder: i + 1,
			Questions:     generator.Numbered(passage.Questions, next),
		})
		next += len(passage.Questions)
	}
	if test.Title == "" {
		test.Title = "IELTS Reading Test: " + test.Passages[0].Title
	}

	if err := rc.DB.WithContext(c.UserContext()).Create(&test).Error; err != nil {
		return utils.NewInfrastructureError("Could not save reading test", err)
	}

	return utils.Created(c, "Reading test generated successfully", publicReadingTest(test))
}

// ListTests godoc
// @Summary List reading tests
// @Tags reading
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /reading/tests [get]
func (rc *ReadingController) ListTests(c *fiber.Ctx) error {
	page, pageSize, offset := utils.PageParams(c)

	var total int64
	if err := rc.DB.Model(&models.ReadingTest{}).Count(&total).Error; err != nil {
		return utils.NewInfrastructureError("Failed to fetch reading tests", err)
	}

	tests := []models.ReadingTest{}
	if err := rc.DB.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&tests).Error; err != nil {
		return utils.NewInfrastructureError("Failed to fetch reading tests", err)
	}

	return utils.Paginate(c, "Reading tests retrieved successfully", tests, total, page, pageSize)
}

// GetTest godoc
// @Summary Get a reading test without its answer key
// @Tags reading
// @Produce json
// @Param id path int true "Test ID"
// @Success 200 {object} utils.Envelope
// @Failure 404 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /reading/tests/{id} [get]
func (rc *ReadingController) GetTest(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	test, err := rc.load(id)
	if err != nil {
		return err
	}
	return utils.OK(c, "Reading test retrieved successfully", publicReadingTest(*test))
}

// SubmitTest godoc
// @Summary Submit answers for a reading test
// @Tags reading
// @Accept json
// @Produce json
// @Param testId path int true "Test ID"
// @Param request body validators.SubmitRequest true "Answers keyed by question number"
// @Success 201 {object} utils.Envelope
// @Failure 400 {object} utils.Envelope
// @Failure 404 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /reading/submit/{testId} [post]
func (rc *ReadingController) SubmitTest(c *fiber.Ctx) error {
	id, err := paramID(c, "testId")
	if err != nil {
		return err
	}

	var input validators.SubmitRequest
	if err := validators.ParseBody(c, &input); err != nil {
		return err
	}

	test, err := rc.load(id)
	if err != nil {
		return err
	}

	return recordAttempt(c, rc.DB, models.TestTypeReading, test.ID, test.AllQuestions(), input.Answers, input.TimeSpent)
}

// Attempts godoc
// @Summary List the current user's reading attempts
// @Tags reading
// @Produce json
// @Param testId query int false "Only attempts at this test"
// @Success 200 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /reading/attempts [get]
func (rc *ReadingController) Attempts(c *fiber.Ctx) error {
	return listAttempts(c, rc.DB, models.TestTypeReading)
}

func (rc *ReadingController) load(id uint) (*models.ReadingTest, error) {
	var test models.ReadingTest
	err := rc.DB.Preload("Passages", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order")
	}).First(&test, id).Error
	if err != nil {
		return nil, lookupError(err, "Reading test")
	}
	return &test, nil
}

func publicReadingTest(test models.ReadingTest) models.ReadingTest {
	passages := make([]models.ReadingPassage, len(test.Passages))
	for i, p := range test.Passages {
		p.Questions = publicQuestions(p.Questions)
		passages[i] = p
	}
	test.Passages = passages
	return test
}

// passageWords is the target passage length per difficulty.
func passageWords(difficulty string) int {
	switch difficulty {
	case "easy":
		return 500
	case "hard":
		return 900
	default:
		return 700
	}
}
