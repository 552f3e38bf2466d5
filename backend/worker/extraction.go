package worker

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ieltsprep/backend/metrics"
	"ieltsprep/backend/models"
	"ieltsprep/backend/services/generator"
	"ieltsprep/backend/storage"
	"ieltsprep/backend/utils"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const maxErrorMessage = 500

// Extractor pulls questions out of uploaded documents and records the outcome on the file.
type Extractor struct {
	db        *gorm.DB
	storage   storage.Storage
	generator generator.Generator
	log       zerolog.Logger
}

func NewExtractor(db *gorm.DB, store storage.Storage, gen generator.Generator) *Extractor {
	return &Extractor{
		db:        db,
		storage:   store,
		generator: gen,
		log:       log.With().Str("component", "extractor").Logger(),
	}
}

// Process runs one extraction job. The file always ends in completed or error
// unless it was deleted or finished by someone else in the meantime.
func (e *Extractor) Process(ctx context.Context, job models.ExtractionJob) error {
	log := e.log.With().Uint("file_id", job.FileID).Str("section", string(job.Section)).Logger()
	log.Info().Msg("Processing extraction job")

	questions, err := e.extract(ctx, job)
	if err != nil {
		return e.fail(ctx, log, job, err)
	}

	records := make([]models.Question, len(questions))
	for i, q := range questions {
		records[i] = q.Record(job.Section, "", "")
		records[i].SourceFileID = &job.FileID
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(records) > 0 {
			if err := tx.Create(&records).Error; err != nil {
				return err
			}
		}
		return models.TransitionFileStatus(tx, job.FileID, models.FileStatusCompleted, len(records), "")
	})
	if errors.Is(err, models.ErrInvalidTransition) {
		metrics.ExtractionJobs.WithLabelValues(metrics.OutcomeDropped).Inc()
		log.Warn().Msg("File is no longer processing, extraction result discarded")
		return nil
	}
	if err != nil {
		return e.fail(ctx, log, job, fmt.Errorf("save extracted questions: %w", err))
	}

	metrics.ExtractionJobs.WithLabelValues(metrics.OutcomeSuccess).Inc()
	log.Info().Int("question_count", len(records)).Msg("File processed successfully")
	return nil
}

func (e *Extractor) extract(ctx context.Context, job models.ExtractionJob) ([]generator.Question, error) {
	reader, err := e.storage.Download(ctx, job.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read file data: %w", err)
	}

	mimeType := job.MIMEType
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	return e.generator.ExtractQuestions(ctx, generator.Attachment{MIMEType: mimeType, Data: data}, job.Section)
}

// fail marks the file as errored. The status write outlives a cancelled job context.
func (e *Extractor) fail(ctx context.Context, log zerolog.Logger, job models.ExtractionJob, cause error) error {
	outcome := metrics.OutcomeError
	var appErr *utils.AppError
	if errors.As(cause, &appErr) {
		switch appErr.Kind {
		case utils.KindGenerationFormat:
			outcome = metrics.OutcomeFormat
		case utils.KindUpstream, utils.KindTimeout:
			outcome = metrics.OutcomeUpstream
		}
	}
	metrics.ExtractionJobs.WithLabelValues(outcome).Inc()
	log.Error().Err(cause).Msg("Extraction failed")

	message := failureMessage(cause)
	err := models.TransitionFileStatus(e.db.WithContext(context.WithoutCancel(ctx)), job.FileID, models.FileStatusError, 0, message)
	if err != nil && !errors.Is(err, models.ErrInvalidTransition) {
		log.Error().Err(err).Msg("Failed to update file status")
		return err
	}
	return cause
}

func failureMessage(err error) string {
	msg := err.Error()
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	return msg
}
