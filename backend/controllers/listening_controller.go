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

type ListeningController struct {
	DB        *gorm.DB
	Cfg       *config.Config
	Generator generator.Generator
}

func NewListeningController(db *gorm.DB, cfg *config.Config, gen generator.Generator) *ListeningController {
	return &ListeningController{DB: db, Cfg: cfg, Generator: gen}
}

// GenerateExercise godoc
// @Summary Generate and save a listening exercise
// @Tags listening
// @Accept json
// @Produce json
// @Param request body validators.ListeningRequest true "Part, topic and question count"
// @Success 201 {object} utils.Envelope
// @Failure 400 {object} utils.Envelope
// @Failure 502 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /listening/generate [post]
func (lc *ListeningController) GenerateExercise(c *fiber.Ctx) error {
	var input validators.ListeningRequest
	if err := validators.ParseBody(c, &input); err != nil {
		return err
	}

	generated, err := lc.Generator.GenerateListening(c.UserContext(), generator.ListeningSpec{
		Topic:         input.Topic,
		Section:       input.Section,
		Difficulty:    input.Difficulty,
		QuestionCount: input.QuestionCount,
	})
	if err != nil {
		return err
	}

	exercise := models.ListeningExercise{
		Title:      generated.Title,
		Topic:      input.Topic,
		Section:    input.Section,
		Difficulty: input.Difficulty,
		Transcript: generated.Transcript,
		Questions:  generator.Numbered(generated.Questions, 1),
		CreatedBy:  middleware.CurrentUser(c).ID,
	}
	if err := lc.DB.WithContext(c.UserContext()).Create(&exercise).Error; err != nil {
		return utils.NewInfrastructureError("Could not save listening exercise", err)
	}

	exercise.Questions = publicQuestions(exercise.Questions)
	return utils.Created(c, "Listening exercise generated successfully", &exercise)
}

// GetExercise godoc
// @Summary Get a listening exercise without its answer key
// @Tags listening
// @Produce json
// @Param id path int true "Exercise ID"
// @Success 200 {object} utils.Envelope
// @Failure 404 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /listening/exercises/{id} [get]
func (lc *ListeningController) GetExercise(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var exercise models.ListeningExercise
	if err := lc.DB.First(&exercise, id).Error; err != nil {
		return lookupError(err, "Listening exercise")
	}

	exercise.Questions = publicQuestions(exercise.Questions)
	return utils.OK(c, "Listening exercise retrieved successfully", &exercise)
}

// SubmitExercise godoc
// @Summary Submit answers for a listening exercise
// @Tags listening
// @Accept json
// @Produce json
// @Param request body validators.ListeningSubmitRequest true "Exercise and answers keyed by question number"
// @Success 201 {object} utils.Envelope
// @Failure 400 {object} utils.Envelope
// @Failure 404 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /listening/submit [post]
func (lc *ListeningController) SubmitExercise(c *fiber.Ctx) error {
	var input validators.ListeningSubmitRequest
	if err := validators.ParseBody(c, &input); err != nil {
		return err
	}

	var exercise models.ListeningExercise
	if err := lc.DB.First(&exercise, input.ExerciseID).Error; err != nil {
		return lookupError(err, "Listening exercise")
	}

	return recordAttempt(c, lc.DB, models.TestTypeListening, exercise.ID, exercise.Questions, input.Answers, input.TimeSpent)
}

// History godoc
// @Summary List the current user's listening attempts
// @Tags listening
// @Produce json
// @Success 200 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /listening/history [get]
func (lc *ListeningController) History(c *fiber.Ctx) error {
	return listAttempts(c, lc.DB, models.TestTypeListening)
}
