package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/fadilmartias/job-agent/internal/config"
	"github.com/fadilmartias/job-agent/internal/domain/fiber/handler"
	"github.com/fadilmartias/job-agent/internal/middleware"
	"github.com/fadilmartias/job-agent/internal/repository"
	"github.com/fadilmartias/job-agent/internal/service"
	"github.com/fadilmartias/job-agent/internal/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	ctx := context.Background()
	err := godotenv.Load()
	if err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	agentConfig := config.LoadAgentConfig()
	if err := agentConfig.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	roles, err := config.LoadRoles(agentConfig.RolesFile)
	if err != nil {
		log.Fatalf("Cannot load role categories: %v", err)
	}
	log.Printf("Loaded %d role categories", len(roles))

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			// Status code defaults to 500
			code := fiber.StatusInternalServerError

			// Retrieve the custom status code if it's a *fiber.Error
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}

			return ctx.Status(code).JSON(fiber.Map{"error": message})
		},
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: appConfig.Env != "production",
	}))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // 1
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.Env != "production"
		},
	}))
	app.Use(healthcheck.New())

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.RateLimiter(50, 1*time.Minute))

	embeddingCache := repository.NewEmbeddingCacheRepository(agentConfig.EmbeddingCacheFile)
	historyRepo := repository.NewHistoryRepository(agentConfig.ProcessedJobsFile)

	gemini, err := service.NewGeminiService(ctx, agentConfig.MinRequestInterval)
	if err != nil {
		log.Fatal(err)
	}
	embeddings := service.NewEmbeddingService(gemini, embeddingCache)
	detector := service.NewRoleDetector(roles, embeddings, agentConfig.SimilarityThreshold)
	analyzer := service.NewWorkPermitAnalyzer(
		agentConfig.RestrictiveLocalTerms,
		agentConfig.PositiveSponsorshipTerms,
		agentConfig.SponsorshipFriendlyCountries,
		agentConfig.ApplicantCountry,
	)
	ledger := service.NewLedgerService(
		historyRepo,
		agentConfig.MaxJobsPerRun,
		agentConfig.MaxScrapeLimit,
		agentConfig.RepostWindow(),
		agentConfig.SessionSummaryDir,
	)
	ledger.SetConfigurationEcho(fiber.Map{
		"max_jobs_per_run":    agentConfig.MaxJobsPerRun,
		"max_scrape_limit":    agentConfig.MaxScrapeLimit,
		"applicant_country":   agentConfig.ApplicantCountry,
		"fit_score_threshold": agentConfig.FitScoreThreshold,
	})
	openRouter := service.NewOpenRouterService(agentConfig.MinRequestInterval)

	uc := usecase.NewIntakeUsecase(ledger, detector, analyzer, openRouter, agentConfig.FitScoreThreshold, agentConfig.BaseResumesDir)
	handler := handler.NewIntakeHandler(uc, historyRepo, time.Duration(agentConfig.RetentionDays)*24*time.Hour)

	handler.RegisterRoutes(app)

	// Flush the session summary when fiber shuts down.
	app.Hooks().OnShutdown(func() error {
		if _, err := uc.EndSession(); err != nil {
			log.Printf("Could not write session summary: %v", err)
		}
		return nil
	})

	log.Println("Server running on ", appConfig.Port)
	if err := app.Listen(appConfig.Port); err != nil {
		log.Fatal(err)
	}
}
