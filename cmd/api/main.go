package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"aihiring/candidate-pipeline/internal/config"
	"aihiring/candidate-pipeline/internal/handlers"
	"aihiring/candidate-pipeline/internal/pipeline"
	"aihiring/candidate-pipeline/internal/repositories"
	"aihiring/candidate-pipeline/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	if cfg.Gemini.APIKey == "" {
		log.Fatal("❌ GEMINI_API_KEY is required")
	}

	// Initialize Gemini AI
	geminiService, err := services.NewGeminiService(cfg.Gemini.APIKey, cfg.Gemini.TTSVoice)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini AI: %v", err)
	}
	log.Println("✅ Gemini AI initialized successfully")

	// Initialize storage for resume uploads
	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatalf("❌ Failed to create upload directory: %v", err)
	}

	pdfParser := services.NewPDFParserService()
	repoFetcher := services.NewRepoFetcherService(cfg.GitHub.Token)

	// Capability services
	codeEvaluator := services.NewCodeEvaluatorService(
		geminiService,
		services.GenericCodeEvaluationFallback{},
		cfg.Pipeline.MCQCount,
	)
	similarityService := services.NewSimilarityService(geminiService)
	interviewService := services.NewInterviewService(geminiService, cfg.Gemini.TTSVoice != "")
	analyzerService := services.NewFinalAnalyzerService(geminiService)
	log.Println("✅ Services initialized successfully")

	// Optional collaborators
	orchestratorOpts := []pipeline.OrchestratorOption{
		pipeline.WithRetryPolicy(pipeline.RetryPolicy{
			MaxAttempts:  cfg.Pipeline.RetryMaxAttempts,
			InitialDelay: cfg.Pipeline.RetryInitialDelay,
		}),
		pipeline.WithCallTimeout(cfg.Pipeline.CallTimeout),
	}

	var qdrantService services.QdrantService
	if cfg.Qdrant.Enabled() {
		qdrantService, err = services.NewQdrantService(
			cfg.Qdrant.URL,
			cfg.Qdrant.APIKey,
			cfg.Qdrant.Collection,
			geminiService,
		)
		if err != nil {
			log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
		}
		if err := qdrantService.InitCollection(); err != nil {
			log.Fatalf("❌ Failed to initialize Qdrant collection: %v", err)
		}
		orchestratorOpts = append(orchestratorOpts, pipeline.WithIndexer(qdrantService))
		log.Println("✅ Qdrant initialized successfully")
	} else {
		log.Println("⚠️  QDRANT_URL not set, candidate indexing and search disabled")
	}

	if cfg.Database.Enabled() {
		db, err := config.InitDatabase(cfg)
		if err != nil {
			log.Fatalf("❌ Failed to initialize database: %v", err)
		}
		candidateRepo := repositories.NewCandidateRepository(db)
		orchestratorOpts = append(orchestratorOpts, pipeline.WithRecorder(candidateRepo))
		log.Println("✅ Candidate repository initialized")
	} else {
		log.Println("⚠️  DB_HOST not set, candidate records disabled")
	}

	// Initialize the pipeline orchestrator
	orchestrator := pipeline.NewOrchestrator(
		pipeline.NewMemorySessionStore(),
		codeEvaluator,
		similarityService,
		interviewService,
		analyzerService,
		orchestratorOpts...,
	)
	log.Println("✅ Pipeline orchestrator initialized")

	// Initialize handlers
	evaluateHandler := handlers.NewEvaluateHandler(
		orchestrator,
		repoFetcher,
		interviewService,
		storageService,
		pdfParser,
	)
	sessionHandler := handlers.NewSessionHandler(orchestrator, qdrantService)
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "AI Candidate Evaluation Pipeline",
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		BodyLimit:    int(cfg.Storage.MaxFileSize),
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	app.Get("/health", sessionHandler.HandleHealth)

	evaluate := app.Group("/evaluate")
	evaluate.Post("/start", evaluateHandler.HandleStart)
	evaluate.Post("/submit-responses", evaluateHandler.HandleSubmitResponses)
	evaluate.Get("/status/:candidate_id", sessionHandler.HandleStatus)
	evaluate.Delete("/cancel/:candidate_id", sessionHandler.HandleCancel)

	app.Get("/candidates/search", sessionHandler.HandleSearch)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "AI Candidate Evaluation Pipeline",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /evaluate/start",
				"POST /evaluate/submit-responses",
				"GET /evaluate/status/:candidate_id",
				"DELETE /evaluate/cancel/:candidate_id",
				"GET /candidates/search",
				"GET /health",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
