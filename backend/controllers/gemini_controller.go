package controllers

import (
	"ieltsprep/backend/config"
	"ieltsprep/backend/models"
	"ieltsprep/backend/services/generator"
	"ieltsprep/backend/utils"
	"ieltsprep/backend/validators"

	"github.com/gofiber/fiber/v2"
)

// GeminiController exposes stateless generation. Nothing it produces is stored.
type GeminiController struct {
	Cfg       *config.Config
	Generator generator.Generator
}

func NewGeminiController(cfg *config.Config, gen generator.Generator) *GeminiController {
	return &GeminiController{Cfg: cfg, Generator: gen}
}

type QuestionSet struct {
	Topic      string               `json:"topic,omitempty"`
	Section    models.Section       `json:"section,omitempty"`
	Difficulty string               `json:"difficulty"`
	Count      int                  `json:"count"`
	Questions  []generator.Question `json:"questions"`
}

// GenerateMCQ godoc
// @Summary Generate multiple-choice questions
// @Tags gemini
// @Accept json
// @Produce json
// @Param request body validators.MCQRequest true "Topic, count and difficulty"
// @Success 200 {object} utils.Envelope
// @Failure 400 {object} utils.Envelope
// @Failure 502 {object} utils.Envelope
// @Failure 503 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /gemini/generate-mcq [post]
func (gc *GeminiController) GenerateMCQ(c *fiber.Ctx) error {
	var input validators.MCQRequest
	if err := validators.ParseBody(c, &input); err != nil {
		return err
	}

	questions, err := gc.Generator.GenerateMCQ(c.UserContext(), generator.MCQSpec{
		Topic:      input.Topic,
		Count:      input.Count,
		Difficulty: input.Difficulty,
	})
	if err != nil {
		return err
	}

	return utils.OK(c, "Questions generated successfully", QuestionSet{
		Topic:      input.Topic,
		Difficulty: input.Difficulty,
		Count:      len(questions),
		Questions:  questions,
	})
}

// GenerateIELTS godoc
// @Summary Generate IELTS section questions
// @Tags gemini
// @Accept json
// @Produce json
// @Param request body validators.IELTSRequest true "Section, topic, count and difficulty"
// @Success 200 {object} utils.Envelope
// @Failure 400 {object} utils.Envelope
// @Failure 502 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /gemini/generate-ielts [post]
func (gc *GeminiController) GenerateIELTS(c *fiber.Ctx) error {
	var input validators.IELTSRequest
	if err := validators.ParseBody(c, &input); err != nil {
		return err
	}

	section := models.Section(input.Section)
	questions, err := gc.Generator.GenerateIELTS(c.UserContext(), generator.IELTSSpec{
		Section:    section,
		Topic:      input.Topic,
		Count:      input.Count,
		Difficulty: input.Difficulty,
	})
	if err != nil {
		return err
	}

	return utils.OK(c, "IELTS questions generated successfully", QuestionSet{
		Topic:      input.Topic,
		Section:    section,
		Difficulty: input.Difficulty,
		Count:      len(questions),
		Questions:  questions,
	})
}

// GeneratePassage godoc
// @Summary Generate a reading passage with questions
// @Tags gemini
// @Accept json
// @Produce json
// @Param request body validators.PassageRequest true "Topic, length and question count"
// @Success 200 {object} utils.Envelope
// @Failure 400 {object} utils.Envelope
// @Failure 502 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /gemini/generate-passage [post]
func (gc *GeminiController) GeneratePassage(c *fiber.Ctx) error {
	var input validators.PassageRequest
	if err := validators.ParseBody(c, &input); err != nil {
		return err
	}

	passage, err := gc.Generator.GeneratePassage(c.UserContext(), generator.PassageSpec{
		Topic:         input.Topic,
		Difficulty:    input.Difficulty,
		WordCount:     input.WordCount,
		QuestionCount: input.QuestionCount,
	})
	if err != nil {
		return err
	}

	return utils.OK(c, "Passage generated successfully", passage)
}
