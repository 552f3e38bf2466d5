package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ReadingTest struct {
	ID         uint             `gorm:"primarykey" json:"id"`
	Title      string           `gorm:"not null" json:"title"`
	Topic      string           `json:"topic,omitempty"`
	Difficulty string           `json:"difficulty"`
	TimeLimit  int              `gorm:"default:60" json:"timeLimit"` // minutes
	CreatedBy  uint             `json:"createdBy"`
	Passages   []ReadingPassage `gorm:"constraint:OnDelete:CASCADE" json:"passages,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt   `gorm:"index" json:"-"`
}

type ReadingPassage struct {
	ID            uint                             `gorm:"primarykey" json:"id"`
	ReadingTestID uint                             `gorm:"index;not null" json:"readingTestId"`
	Title         string                           `json:"title"`
	Content       string                           `gorm:"type:text;not null" json:"content"`
	SequenceOrder int                              `json:"order"`
	Questions     datatypes.JSONSlice[TestQuestion] `json:"questions"`
}

// AllQuestions returns the questions of every passage in passage order.
func (t *ReadingTest) AllQuestions() []TestQuestion {
	var all []TestQuestion
	for _, p := range t.Passages {
		all = append(all, p.Questions...)
	}
	return all
}

type ListeningExercise struct {
	ID         uint                             `gorm:"primarykey" json:"id"`
	Title      string                           `gorm:"not null" json:"title"`
	Topic      string                           `json:"topic,omitempty"`
	Section    int                              `json:"section"` // IELTS listening part 1-4
	Difficulty string                           `json:"difficulty"`
	Transcript string                           `gorm:"type:text;not null" json:"transcript"`
	Questions  datatypes.JSONSlice[TestQuestion] `json:"questions"`
	CreatedBy  uint                             `json:"createdBy"`
	CreatedAt  time.Time                        `json:"createdAt"`
	UpdatedAt  time.Time                        `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt                   `gorm:"index" json:"-"`
}

type TestType string

const (
	TestTypeReading   TestType = "reading"
	TestTypeListening TestType = "listening"
)

type AnswerResult struct {
	Number        int    `json:"number"`
	Given         string `json:"given"`
	CorrectAnswer string `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
}

// Attempt is immutable once written.
type Attempt struct {
	ID         uint                             `gorm:"primarykey" json:"id"`
	UserID     uint                             `gorm:"index;not null" json:"userId"`
	TestType   TestType                         `gorm:"type:varchar(16);index;not null" json:"testType"`
	TestID     uint                             `gorm:"index;not null" json:"testId"`
	Answers    datatypes.JSONSlice[AnswerResult] `json:"answers"`
	Score      int                              `json:"score"`
	Total      int                              `json:"total"`
	Percentage float64                          `json:"percentage"`
	BandScore  float64                          `json:"bandScore"`
	TimeSpent  int                              `json:"timeSpent"` // seconds
	CreatedAt  time.Time                        `json:"createdAt"`
}

// All lists every model managed by auto-migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&UploadedFile{},
		&Question{},
		&ReadingTest{},
		&ReadingPassage{},
		&ListeningExercise{},
		&Attempt{},
	}
}
