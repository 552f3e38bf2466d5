package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrQueueFull  = errors.New("worker pool queue is full")
	ErrPoolClosed = errors.New("worker pool is stopped")
)

type Job func(context.Context) error

type WorkerPool struct {
	workerCount int
	jobChan     chan Job
	wg          sync.WaitGroup
	mu          sync.RWMutex
	closed      bool
	log         zerolog.Logger
}

func NewWorkerPool(workerCount, queueSize int) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = workerCount * 2
	}
	return &WorkerPool{
		workerCount: workerCount,
		jobChan:     make(chan Job, queueSize),
		log:         log.With().Str("component", "worker_pool").Logger(),
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	wp.log.Info().Int("worker_count", wp.workerCount).Msg("Starting worker pool")

	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Stop closes the queue and waits for workers to finish the jobs already accepted.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.jobChan)
	wp.mu.Unlock()

	wp.log.Info().Msg("Stopping worker pool")
	wp.wg.Wait()
	wp.log.Info().Msg("Worker pool stopped")
}

// Submit queues a job without blocking.
func (wp *WorkerPool) Submit(job Job) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return ErrPoolClosed
	}

	select {
	case wp.jobChan <- job:
		return nil
	default:
		wp.log.Warn().Msg("Worker pool job queue full, job rejected")
		return ErrQueueFull
	}
}

// SubmitWait queues a job, blocking until there is room or ctx is done.
func (wp *WorkerPool) SubmitWait(ctx context.Context, job Job) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return ErrPoolClosed
	}

	select {
	case wp.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	log := wp.log.With().Int("worker_id", id).Logger()
	log.Debug().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Worker stopping due to context cancellation")
			return
		case job, ok := <-wp.jobChan:
			if !ok {
				log.Debug().Msg("Worker stopping due to closed job channel")
				return
			}
			wp.run(ctx, log, job)
		}
	}
}

func (wp *WorkerPool) run(ctx context.Context, log zerolog.Logger, job Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Job panicked")
		}
	}()

	if err := job(ctx); err != nil {
		log.Error().Err(err).Msg("Job execution failed")
	}
}
