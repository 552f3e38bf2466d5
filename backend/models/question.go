package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Section string

const (
	SectionReading   Section = "reading"
	SectionListening Section = "listening"
	SectionWriting   Section = "writing"
	SectionSpeaking  Section = "speaking"
	SectionGeneral   Section = "general"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false_not_given"
	QuestionShortAnswer    QuestionType = "short_answer"
	QuestionTask           QuestionType = "task"
)

// HasOptions reports whether answers must be picked from an option list.
func (t QuestionType) HasOptions() bool {
	return t == QuestionMultipleChoice || t == QuestionTrueFalse
}

// Question is a generated or extracted item stored in the question bank.
type Question struct {
	ID            uint                       `gorm:"primarykey" json:"id"`
	Section       Section                    `gorm:"type:varchar(16);index" json:"section"`
	Type          QuestionType               `gorm:"type:varchar(32)" json:"type"`
	Topic         string                     `json:"topic,omitempty"`
	Difficulty    string                     `json:"difficulty,omitempty"`
	Text          string                     `gorm:"not null" json:"text"`
	Options       datatypes.JSONSlice[string] `json:"options"`
	CorrectAnswer string                     `json:"correctAnswer"`
	Explanation   string                     `json:"explanation,omitempty"`
	SourceFileID  *uint                      `gorm:"index" json:"sourceFileId,omitempty"`
	CreatedAt     time.Time                  `json:"createdAt"`
	UpdatedAt     time.Time                  `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt             `gorm:"index" json:"-"`
}

// TestQuestion is a numbered question embedded in a reading passage or listening exercise.
type TestQuestion struct {
	Number        int          `json:"number"`
	Type          QuestionType `json:"type"`
	Text          string       `json:"text"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty"`
	Explanation   string       `json:"explanation,omitempty"`
}

// Public drops the answer key before a question is shown to a candidate.
func (q TestQuestion) Public() TestQuestion {
	q.CorrectAnswer = ""
	q.Explanation = ""
	return q
}
