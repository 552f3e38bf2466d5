package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"ieltsprep/backend/config"
	"ieltsprep/backend/queue"
	"ieltsprep/backend/routes"
	"ieltsprep/backend/services/generator"
	"ieltsprep/backend/session"
	"ieltsprep/backend/storage"
	"ieltsprep/backend/utils"
	"ieltsprep/backend/worker"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and extraction workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger := utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	db, err := utils.InitDB(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := utils.CloseDB(db); err != nil {
			logger.Error().Err(err).Msg("Failed to close database")
		}
	}()
	if err := utils.Migrate(db); err != nil {
		return err
	}

	store, err := storage.New(cfg)
	if err != nil {
		return err
	}

	var model generator.Model = generator.Unconfigured{}
	if cfg.GeminiAPIKey != "" {
		gm, err := generator.NewGeminiModel(parent, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return err
		}
		model = gm
		logger.Info().Str("model", gm.Name()).Msg("Generation model ready")
	} else {
		logger.Warn().Msg("GEMINI_API_KEY not set, generation endpoints will report the service as unavailable")
	}
	gen := generator.NewService(model, cfg.GeminiTimeout)

	pool := worker.NewWorkerPool(cfg.WorkerCount, cfg.WorkerCount*16)
	extractor := worker.NewExtractor(db, store, gen)

	var (
		revoker     session.Revoker   = session.NewMemoryRevoker()
		dispatcher  worker.Dispatcher = worker.NewPoolDispatcher(pool, extractor)
		redisClient *queue.RedisClient
	)
	if cfg.RedisAddr != "" {
		redisClient, err = queue.NewRedisClient(cfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		revoker = session.NewRedisRevoker(redisClient.Client())
		dispatcher = queue.NewProducer(redisClient.Client(), cfg.ExtractionQueue)
		logger.Info().Str("queue", cfg.ExtractionQueue).Msg("Using Redis for extraction jobs and token revocation")
	}

	app := routes.NewApp(routes.Deps{
		DB:         db,
		Cfg:        cfg,
		Generator:  gen,
		Storage:    store,
		Dispatcher: dispatcher,
		Revoker:    revoker,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// jobs already accepted keep running after the signal and drain in pool.Stop
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	pool.Start(workerCtx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("port", cfg.ServerPort).Str("env", cfg.Environment).Msg("Starting server")
		return app.Listen(":" + cfg.ServerPort)
	})
	if redisClient != nil {
		qw := worker.NewQueueWorker(queue.NewConsumer(redisClient.Client(), cfg.ExtractionQueue), pool, extractor)
		g.Go(func() error {
			return qw.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down server...")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	err = g.Wait()
	pool.Stop()
	logger.Info().Msg("Server exited")

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
