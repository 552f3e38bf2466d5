package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"ieltsprep/backend/config"
	"ieltsprep/backend/middleware"
	"ieltsprep/backend/models"
	"ieltsprep/backend/storage"
	"ieltsprep/backend/utils"
	"ieltsprep/backend/validators"
	"ieltsprep/backend/worker"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const pdfMIME = "application/pdf"

type FileController struct {
	DB         *gorm.DB
	Cfg        *config.Config
	Storage    storage.Storage
	Dispatcher worker.Dispatcher
}

func NewFileController(db *gorm.DB, cfg *config.Config, store storage.Storage, dispatcher worker.Dispatcher) *FileController {
	return &FileController{DB: db, Cfg: cfg, Storage: store, Dispatcher: dispatcher}
}

// UploadFile godoc
// @Summary Upload a PDF for question extraction
// @Description Stores the document, records it as processing and queues extraction
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF document"
// @Param section formData string false "reading|listening|writing|speaking|general"
// @Success 201 {object} utils.Envelope
// @Failure 400 {object} utils.Envelope
// @Failure 403 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /questions/upload [post]
func (fc *FileController) UploadFile(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return utils.NewValidationError("Validation failed", utils.FieldError{Field: "file", Message: "is required"})
	}

	section, ok := validators.FileSection(c.FormValue("section"))
	if !ok {
		return utils.NewValidationError("Validation failed", utils.FieldError{
			Field:   "section",
			Message: "must be one of: reading, listening, writing, speaking, general",
		})
	}

	if header.Size == 0 {
		return utils.NewValidationError("Validation failed", utils.FieldError{Field: "file", Message: "must not be empty"})
	}
	if header.Size > int64(fc.Cfg.MaxUploadSize) {
		return utils.NewValidationError("Validation failed", utils.FieldError{
			Field:   "file",
			Message: fmt.Sprintf("must be at most %d bytes", fc.Cfg.MaxUploadSize),
		})
	}

	file, err := header.Open()
	if err != nil {
		return utils.NewInfrastructureError("Could not read uploaded file", err)
	}
	defer file.Close()

	detected, err := mimetype.DetectReader(file)
	if err != nil {
		return utils.NewInfrastructureError("Could not read uploaded file", err)
	}
	if !detected.Is(pdfMIME) || !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		return utils.NewValidationError("Validation failed", utils.FieldError{Field: "file", Message: "only PDF files are allowed"})
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return utils.NewInfrastructureError("Could not read uploaded file", err)
	}

	ctx := c.UserContext()
	key := fmt.Sprintf("uploads/%s/%s.pdf", time.Now().UTC().Format("2006/01"), uuid.NewString())
	if err := fc.Storage.Upload(ctx, key, file, pdfMIME); err != nil {
		return utils.NewInfrastructureError("Could not store uploaded file", err)
	}

	record := models.UploadedFile{
		OriginalName: filepath.Base(header.Filename),
		StorageKey:   key,
		Size:         header.Size,
		MIMEType:     pdfMIME,
		Status:       models.FileStatusProcessing,
		Section:      section,
		UploadedBy:   middleware.CurrentUser(c).ID,
	}
	if err := fc.DB.WithContext(ctx).Create(&record).Error; err != nil {
		if delErr := fc.Storage.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			log.Warn().Err(delErr).Str("storage_key", key).Msg("Failed to remove orphaned upload")
		}
		return utils.NewInfrastructureError("Could not save file record", err)
	}

	job := models.ExtractionJob{FileID: record.ID, StorageKey: key, Section: section, MIMEType: pdfMIME}
	if err := fc.Dispatcher.Dispatch(ctx, job); err != nil {
		log.Error().Err(err).Uint("file_id", record.ID).Msg("Failed to dispatch extraction job")
		message := "Could not queue extraction: " + err.Error()
		if tErr := models.TransitionFileStatus(fc.DB, record.ID, models.FileStatusError, 0, message); tErr != nil &&
			!errors.Is(tErr, models.ErrInvalidTransition) {
			return utils.NewInfrastructureError("Could not update file status", tErr)
		}
		record.Status = models.FileStatusError
		record.ErrorMessage = message
		return utils.Created(c, "File uploaded but extraction could not be queued", &record)
	}

	return utils.Created(c, "File uploaded successfully, extraction started", &record)
}

// ListFiles godoc
// @Summary List uploaded files
// @Tags files
// @Produce json
// @Param status query string false "processing|completed|error"
// @Param section query string false "Section filter"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /questions/files [get]
func (fc *FileController) ListFiles(c *fiber.Ctx) error {
	page, pageSize, offset := utils.PageParams(c)

	query := fc.DB.Model(&models.UploadedFile{})
	if status := models.FileStatus(strings.ToLower(c.Query("status"))); status != "" {
		switch status {
		case models.FileStatusProcessing, models.FileStatusCompleted, models.FileStatusError:
			query = query.Where("status = ?", status)
		default:
			return utils.NewValidationError("Validation failed", utils.FieldError{
				Field:   "status",
				Message: "must be one of: processing, completed, error",
			})
		}
	}
	if raw := c.Query("section"); raw != "" {
		section, ok := validators.FileSection(raw)
		if !ok {
			return utils.NewValidationError("Validation failed", utils.FieldError{Field: "section", Message: "is not a valid section"})
		}
		query = query.Where("section = ?", section)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.NewInfrastructureError("Failed to fetch files", err)
	}

	files := []models.UploadedFile{}
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&files).Error; err != nil {
		return utils.NewInfrastructureError("Failed to fetch files", err)
	}

	return utils.Paginate(c, "Files retrieved successfully", files, total, page, pageSize)
}

// GetFile godoc
// @Summary Get an uploaded file record
// @Tags files
// @Produce json
// @Param id path int true "File ID"
// @Success 200 {object} utils.Envelope
// @Failure 404 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /questions/files/{id} [get]
func (fc *FileController) GetFile(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var file models.UploadedFile
	if err := fc.DB.First(&file, id).Error; err != nil {
		return lookupError(err, "File")
	}
	return utils.OK(c, "File retrieved successfully", &file)
}

// DeleteFile godoc
// @Summary Delete an uploaded file
// @Description Removes the record, its extracted questions and the stored document
// @Tags files
// @Produce json
// @Param id path int true "File ID"
// @Success 200 {object} utils.Envelope
// @Failure 404 {object} utils.Envelope
// @Security ApiKeyAuth
// @Router /questions/files/{id} [delete]
func (fc *FileController) DeleteFile(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var file models.UploadedFile
	err = fc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&file, id).Error; err != nil {
			return err
		}
		if err := tx.Where("source_file_id = ?", file.ID).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&file).Error
	})
	if err != nil {
		return lookupError(err, "File")
	}

	if err := fc.Storage.Delete(c.UserContext(), file.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Warn().Err(err).Str("storage_key", file.StorageKey).Msg("Failed to delete stored file")
	}

	return utils.OK(c, "File deleted successfully", fiber.Map{"id": file.ID})
}
