package routes

import (
	"ieltsprep/backend/config"
	"ieltsprep/backend/controllers"
	"ieltsprep/backend/middleware"
	"ieltsprep/backend/models"
	"ieltsprep/backend/services/generator"
	"ieltsprep/backend/session"
	"ieltsprep/backend/storage"
	"ieltsprep/backend/utils"
	"ieltsprep/backend/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Deps are the long-lived collaborators shared by every handler.
type Deps struct {
	DB         *gorm.DB
	Cfg        *config.Config
	Generator  generator.Generator
	Storage    storage.Storage
	Dispatcher worker.Dispatcher
	Revoker    session.Revoker
	Logger     zerolog.Logger
}

// NewApp builds the Fiber application with its middleware chain and routes.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "ieltsprep",
		ErrorHandler:          utils.ErrorHandler(deps.Cfg.IsProduction(), deps.Logger),
		BodyLimit:             deps.Cfg.MaxUploadSize + 1<<20,
		DisableStartupMessage: true,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: !deps.Cfg.IsProduction()}))
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: deps.Cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))
	app.Use(middleware.LoggingMiddleware(deps.Logger))
	app.Use(middleware.MetricsMiddleware())

	SetupRoutes(app, deps)
	return app
}

func SetupRoutes(app *fiber.App, deps Deps) {
	db, cfg := deps.DB, deps.Cfg

	healthController := controllers.NewHealthController(db)
	app.Get("/health", healthController.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Middleware
	authMiddleware := middleware.AuthMiddleware(db, cfg, deps.Revoker)
	adminMiddleware := middleware.AdminMiddleware()
	filesMiddleware := middleware.RequireCapability(models.CapManageFiles)
	generateMiddleware := middleware.RequireCapability(models.CapGenerateContent)
	testsMiddleware := middleware.RequireCapability(models.CapTakeTests)

	// Auth routes
	authController := controllers.NewAuthController(db, cfg, deps.Revoker)
	auth := api.Group("/auth")
	auth.Post("/signup", authController.Signup)
	auth.Post("/login", authController.Login)
	auth.Post("/logout", authMiddleware, authController.Logout)
	auth.Get("/me", authMiddleware, authController.Me)

	// User administration
	userController := controllers.NewUserController(db, cfg)
	auth.Get("/users", authMiddleware, adminMiddleware, userController.ListUsers)
	auth.Patch("/users/:id/toggle-status", authMiddleware, adminMiddleware, userController.ToggleUserStatus)

	// Files and question bank
	fileController := controllers.NewFileController(db, cfg, deps.Storage, deps.Dispatcher)
	questionController := controllers.NewQuestionController(db, cfg)
	questions := api.Group("/questions", authMiddleware)
	questions.Post("/upload", filesMiddleware, fileController.UploadFile)
	questions.Get("/files", filesMiddleware, fileController.ListFiles)
	questions.Get("/files/:id", filesMiddleware, fileController.GetFile)
	questions.Delete("/files/:id", filesMiddleware, fileController.DeleteFile)
	questions.Get("/", questionController.ListQuestions)

	// Stateless generation
	geminiController := controllers.NewGeminiController(cfg, deps.Generator)
	gemini := api.Group("/gemini", authMiddleware, generateMiddleware)
	gemini.Post("/generate-mcq", geminiController.GenerateMCQ)
	gemini.Post("/generate-ielts", geminiController.GenerateIELTS)
	gemini.Post("/generate-passage", geminiController.GeneratePassage)

	// Reading tests
	readingController := controllers.NewReadingController(db, cfg, deps.Generator)
	reading := api.Group("/reading", authMiddleware, testsMiddleware)
	reading.Post("/generate-test", generateMiddleware, readingController.GenerateTest)
	reading.Get("/tests", readingController.ListTests)
	reading.Get("/tests/:id", readingController.GetTest)
	reading.Post("/submit/:testId", readingController.SubmitTest)
	reading.Get("/attempts", readingController.Attempts)

	// Listening exercises
	listeningController := controllers.NewListeningController(db, cfg, deps.Generator)
	listening := api.Group("/listening", authMiddleware, testsMiddleware)
	listening.Post("/generate", generateMiddleware, listeningController.GenerateExercise)
	listening.Get("/exercises/:id", listeningController.GetExercise)
	listening.Post("/submit", listeningController.SubmitExercise)
	listening.Get("/history", listeningController.History)

	// Progress and platform analytics
	progressController := controllers.NewProgressController(db, cfg)
	api.Get("/progress", authMiddleware, testsMiddleware, progressController.GetProgress)

	analyticsController := controllers.NewAnalyticsController(db, cfg)
	api.Get("/analytics", authMiddleware, adminMiddleware, analyticsController.GetPlatformAnalytics)
}
