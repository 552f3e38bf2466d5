package validators

import (
	"strings"

	"ieltsprep/backend/models"
)

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72,strongpassword"`
}

func (r *SignupRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = models.NormalizeEmail(r.Email)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Email = models.NormalizeEmail(r.Email)
}

type MCQRequest struct {
	Topic      string `json:"topic" validate:"required,min=2,max=200"`
	Count      int    `json:"count" validate:"min=1,max=20"`
	Difficulty string `json:"difficulty" validate:"oneof=easy medium hard"`
}

func (r *MCQRequest) Normalize() {
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Count == 0 {
		r.Count = 5
	}
	if r.Difficulty == "" {
		r.Difficulty = "medium"
	}
}

type IELTSRequest struct {
	Section    string `json:"section" validate:"required,oneof=reading listening writing speaking"`
	Topic      string `json:"topic" validate:"max=200"`
	Count      int    `json:"count" validate:"min=1,max=20"`
	Difficulty string `json:"difficulty" validate:"oneof=easy medium hard"`
}

func (r *IELTSRequest) Normalize() {
	r.Section = strings.ToLower(strings.TrimSpace(r.Section))
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Count == 0 {
		r.Count = 5
	}
	if r.Difficulty == "" {
		r.Difficulty = "medium"
	}
}

type PassageRequest struct {
	Topic         string `json:"topic" validate:"max=200"`
	Difficulty    string `json:"difficulty" validate:"oneof=easy medium hard"`
	WordCount     int    `json:"wordCount" validate:"min=150,max=1200"`
	QuestionCount int    `json:"questionCount" validate:"min=1,max=15"`
}

func (r *PassageRequest) Normalize() {
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Difficulty == "" {
		r.Difficulty = "medium"
	}
	if r.WordCount == 0 {
		r.WordCount = 700
	}
	if r.QuestionCount == 0 {
		r.QuestionCount = 5
	}
}

type ReadingTestRequest struct {
	Title               string `json:"title" validate:"max=200"`
	Topic               string `json:"topic" validate:"max=200"`
	Difficulty          string `json:"difficulty" validate:"oneof=easy medium hard"`
	PassageCount        int    `json:"passageCount" validate:"min=1,max=3"`
	QuestionsPerPassage int    `json:"questionsPerPassage" validate:"min=1,max=14"`
	TimeLimit           int    `json:"timeLimit" validate:"min=1,max=180"`
}

func (r *ReadingTestRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Difficulty == "" {
		r.Difficulty = "medium"
	}
	if r.PassageCount == 0 {
		r.PassageCount = 1
	}
	if r.QuestionsPerPassage == 0 {
		r.QuestionsPerPassage = 5
	}
	if r.TimeLimit == 0 {
		r.TimeLimit = 20 * r.PassageCount
	}
}

type ListeningRequest struct {
	Topic         string `json:"topic" validate:"max=200"`
	Section       int    `json:"section" validate:"min=1,max=4"`
	Difficulty    string `json:"difficulty" validate:"oneof=easy medium hard"`
	QuestionCount int    `json:"questionCount" validate:"min=1,max=10"`
}

func (r *ListeningRequest) Normalize() {
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Section == 0 {
		r.Section = 1
	}
	if r.Difficulty == "" {
		r.Difficulty = "medium"
	}
	if r.QuestionCount == 0 {
		r.QuestionCount = 5
	}
}

// SubmitRequest carries answers keyed by question number.
type SubmitRequest struct {
	Answers   map[string]string `json:"answers" validate:"required"`
	TimeSpent int               `json:"timeSpent" validate:"min=0"`
}

type ListeningSubmitRequest struct {
	ExerciseID uint              `json:"exerciseId" validate:"required,gt=0"`
	Answers    map[string]string `json:"answers" validate:"required"`
	TimeSpent  int               `json:"timeSpent" validate:"min=0"`
}

// Sections accepted on uploaded files.
var fileSections = map[models.Section]bool{
	models.SectionReading:   true,
	models.SectionListening: true,
	models.SectionWriting:   true,
	models.SectionSpeaking:  true,
	models.SectionGeneral:   true,
}

// FileSection validates the section form field of an upload. Empty means general.
func FileSection(raw string) (models.Section, bool) {
	s := models.Section(strings.ToLower(strings.TrimSpace(raw)))
	if s == "" {
		return models.SectionGeneral, true
	}
	return s, fileSections[s]
}
