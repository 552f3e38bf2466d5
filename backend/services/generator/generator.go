// Package generator turns prompts sent to a text-generation model into typed
// question and passage records. It calls the model once per operation,
// never retries, never caches and never persists.
package generator

import (
	"context"
	"errors"
	"time"

	"ieltsprep/backend/metrics"
	"ieltsprep/backend/models"
	"ieltsprep/backend/utils"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Attachment is binary content sent alongside a prompt.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Model is a single-shot text generation backend.
type Model interface {
	Generate(ctx context.Context, prompt string, attachments ...Attachment) (string, error)
}

var (
	// ErrEmptyResponse is returned by a Model that produced no text.
	ErrEmptyResponse = errors.New("model returned an empty response")
	ErrNotConfigured = errors.New("generation model is not configured")
)

// Unconfigured stands in when no API key is set. Every call fails as unavailable.
type Unconfigured struct{}

func (Unconfigured) Generate(context.Context, string, ...Attachment) (string, error) {
	return "", ErrNotConfigured
}

type Question struct {
	Type          models.QuestionType `json:"type"`
	Text          string              `json:"question"`
	Options       []string            `json:"options"`
	CorrectAnswer string              `json:"correctAnswer"`
	Explanation   string              `json:"explanation,omitempty"`
}

type Passage struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Questions []Question `json:"questions"`
}

type Listening struct {
	Title      string     `json:"title"`
	Transcript string     `json:"transcript"`
	Questions  []Question `json:"questions"`
}

type MCQSpec struct {
	Topic      string
	Count      int
	Difficulty string
}

type IELTSSpec struct {
	Section    models.Section
	Topic      string
	Count      int
	Difficulty string
}

type PassageSpec struct {
	Topic         string
	Difficulty    string
	WordCount     int
	QuestionCount int
}

type ListeningSpec struct {
	Topic         string
	Section       int
	Difficulty    string
	QuestionCount int
}

// Generator is the contract controllers and workers depend on.
type Generator interface {
	GenerateMCQ(ctx context.Context, spec MCQSpec) ([]Question, error)
	GenerateIELTS(ctx context.Context, spec IELTSSpec) ([]Question, error)
	GeneratePassage(ctx context.Context, spec PassageSpec) (*Passage, error)
	GenerateListening(ctx context.Context, spec ListeningSpec) (*Listening, error)
	ExtractQuestions(ctx context.Context, document Attachment, section models.Section) ([]Question, error)
}

type Service struct {
	model   Model
	timeout time.Duration
	log     zerolog.Logger
}

func NewService(model Model, timeout time.Duration) *Service {
	return &Service{
		model:   model,
		timeout: timeout,
		log:     log.With().Str("component", "generator").Logger(),
	}
}

func (s *Service) GenerateMCQ(ctx context.Context, spec MCQSpec) ([]Question, error) {
	raw, err := s.call(ctx, "mcq", mcqPrompt(spec))
	if err != nil {
		return nil, err
	}
	return s.finish("mcq", func() ([]Question, error) {
		return parseQuestions(raw, spec.Count, models.QuestionMultipleChoice, models.QuestionMultipleChoice)
	})
}

func (s *Service) GenerateIELTS(ctx context.Context, spec IELTSSpec) ([]Question, error) {
	raw, err := s.call(ctx, "ielts", ieltsPrompt(spec))
	if err != nil {
		return nil, err
	}
	return s.finish("ielts", func() ([]Question, error) {
		return parseQuestions(raw, spec.Count, defaultTypeFor(spec.Section), "")
	})
}

func (s *Service) GeneratePassage(ctx context.Context, spec PassageSpec) (*Passage, error) {
	raw, err := s.call(ctx, "passage", passagePrompt(spec))
	if err != nil {
		return nil, err
	}
	p, err := parsePassage(raw, spec)
	s.record("passage", err)
	return p, err
}

func (s *Service) GenerateListening(ctx context.Context, spec ListeningSpec) (*Listening, error) {
	raw, err := s.call(ctx, "listening", listeningPrompt(spec))
	if err != nil {
		return nil, err
	}
	l, err := parseListening(raw, spec)
	s.record("listening", err)
	return l, err
}

func (s *Service) ExtractQuestions(ctx context.Context, document Attachment, section models.Section) ([]Question, error) {
	raw, err := s.call(ctx, "extract", extractionPrompt(section), document)
	if err != nil {
		return nil, err
	}
	return s.finish("extract", func() ([]Question, error) {
		return parseQuestions(raw, 0, defaultTypeFor(section), "")
	})
}

// call performs the single model invocation for an operation.
func (s *Service) call(ctx context.Context, op, prompt string, attachments ...Attachment) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.model.Generate(ctx, prompt, attachments...)
	metrics.GenerationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if errors.Is(err, ErrEmptyResponse) {
		metrics.Generations.WithLabelValues(op, metrics.OutcomeFormat).Inc()
		return "", utils.NewGenerationFormatError("The model returned an empty response", err)
	}
	if err != nil {
		metrics.Generations.WithLabelValues(op, metrics.OutcomeUpstream).Inc()
		s.log.Warn().Err(err).Str("operation", op).Dur("elapsed", time.Since(start)).Msg("generation call failed")
		return "", utils.NewUpstreamError("The generation service is unavailable", err)
	}
	return raw, nil
}

func (s *Service) finish(op string, parse func() ([]Question, error)) ([]Question, error) {
	qs, err := parse()
	s.record(op, err)
	return qs, err
}

func (s *Service) record(op string, err error) {
	if err != nil {
		metrics.Generations.WithLabelValues(op, metrics.OutcomeFormat).Inc()
		s.log.Warn().Err(err).Str("operation", op).Msg("generation output rejected")
		return
	}
	metrics.Generations.WithLabelValues(op, metrics.OutcomeSuccess).Inc()
}

func defaultTypeFor(section models.Section) models.QuestionType {
	switch section {
	case models.SectionWriting, models.SectionSpeaking:
		return models.QuestionTask
	default:
		return models.QuestionMultipleChoice
	}
}

// Record converts a generated question into a question bank row.
func (q Question) Record(section models.Section, topic, difficulty string) models.Question {
	return models.Question{
		Section:       section,
		Type:          q.Type,
		Topic:         topic,
		Difficulty:    difficulty,
		Text:          q.Text,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
	}
}

// Numbered converts questions into test questions numbered from first.
func Numbered(qs []Question, first int) []models.TestQuestion {
	out := make([]models.TestQuestion, len(qs))
	for i, q := range qs {
		out[i] = models.TestQuestion{
			Number:        first + i,
			Type:          q.Type,
			Text:          q.Text,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
	}
	return out
}
