package worker

import (
	"context"
	"encoding/json"

	"ieltsprep/backend/models"
	"ieltsprep/backend/queue"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Dispatcher hands extraction jobs to whatever runs them.
type Dispatcher interface {
	Dispatch(ctx context.Context, job models.ExtractionJob) error
}

// PoolDispatcher runs jobs on an in-process pool.
type PoolDispatcher struct {
	pool      *WorkerPool
	extractor *Extractor
}

func NewPoolDispatcher(pool *WorkerPool, extractor *Extractor) *PoolDispatcher {
	return &PoolDispatcher{pool: pool, extractor: extractor}
}

func (d *PoolDispatcher) Dispatch(_ context.Context, job models.ExtractionJob) error {
	return d.pool.Submit(func(ctx context.Context) error {
		return d.extractor.Process(ctx, job)
	})
}

// QueueWorker consumes extraction jobs from Redis and runs them on the pool.
type QueueWorker struct {
	consumer  *queue.Consumer
	pool      *WorkerPool
	extractor *Extractor
	log       zerolog.Logger
}

func NewQueueWorker(consumer *queue.Consumer, pool *WorkerPool, extractor *Extractor) *QueueWorker {
	return &QueueWorker{
		consumer:  consumer,
		pool:      pool,
		extractor: extractor,
		log:       log.With().Str("component", "queue_worker").Logger(),
	}
}

// Run blocks until ctx is cancelled.
func (w *QueueWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting extraction queue worker")
	return w.consumer.Consume(ctx, w.handleMessage)
}

func (w *QueueWorker) handleMessage(ctx context.Context, data []byte) error {
	var job models.ExtractionJob
	if err := json.Unmarshal(data, &job); err != nil {
		w.log.Error().Err(err).Msg("Failed to unmarshal extraction job")
		return err
	}

	w.log.Info().Uint("file_id", job.FileID).Str("storage_key", job.StorageKey).Msg("Received extraction job")

	return w.pool.SubmitWait(ctx, func(ctx context.Context) error {
		return w.extractor.Process(ctx, job)
	})
}
