package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type FileStatus string

const (
	FileStatusProcessing FileStatus = "processing"
	FileStatusCompleted  FileStatus = "completed"
	FileStatusError      FileStatus = "error"
)

// ErrInvalidTransition is returned when a file is not in a state that allows the requested move.
var ErrInvalidTransition = errors.New("invalid file status transition")

// CanTransition allows only processing -> completed and processing -> error.
func (s FileStatus) CanTransition(to FileStatus) bool {
	return s == FileStatusProcessing && (to == FileStatusCompleted || to == FileStatusError)
}

type UploadedFile struct {
	ID                 uint           `gorm:"primarykey" json:"id"`
	OriginalName       string         `gorm:"not null" json:"originalName"`
	StorageKey         string         `gorm:"not null" json:"storageKey"`
	Size               int64          `gorm:"not null" json:"size"`
	MIMEType           string         `json:"mimeType"`
	Status             FileStatus     `gorm:"type:varchar(16);default:processing;not null;index" json:"status"`
	QuestionsExtracted int            `gorm:"default:0" json:"questionsExtracted"`
	Section            Section        `gorm:"type:varchar(16);index" json:"section"`
	ErrorMessage       string         `json:"errorMessage,omitempty"`
	UploadedBy         uint           `json:"uploadedBy"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// TransitionFileStatus moves a processing file to a terminal status. The
// update is conditional on the current status, so a finished file never
// reverts and concurrent writers cannot both win.
func TransitionFileStatus(tx *gorm.DB, id uint, to FileStatus, questions int, message string) error {
	if !FileStatusProcessing.CanTransition(to) {
		return ErrInvalidTransition
	}

	result := tx.Model(&UploadedFile{}).
		Where("id = ? AND status = ?", id, FileStatusProcessing).
		Updates(map[string]interface{}{
			"status":              to,
			"questions_extracted": questions,
			"error_message":       message,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// ExtractionJob asks a worker to pull questions out of an uploaded file.
type ExtractionJob struct {
	FileID     uint    `json:"fileId"`
	StorageKey string  `json:"storageKey"`
	Section    Section `json:"section"`
	MIMEType   string  `json:"mimeType"`
}
