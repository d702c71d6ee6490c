package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"card-collect-system/handlers"
	"card-collect-system/logger"
	"card-collect-system/middleware"
	"card-collect-system/models"
	"card-collect-system/services"
	"card-collect-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Not fatal: containers inject env directly
		os.Stderr.WriteString("⚠️  No .env file found, reading environment variables directly\n")
	}

	logger.Init()
	defer logger.Sync()

	app := fiber.New()

	// 🔐❗ GLOBAL: Only Gateway requests allowed, no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// CORS: load allowed origins from environment
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		logger.Warn("ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, Cache-Control, X-Service-Token, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL environment variable not set")
	}

	// TranslateError turns driver-specific unique violations into
	// gorm.ErrDuplicatedKey; the redemption engine depends on it.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&models.Season{},
		&models.Event{},
		&models.UserCard{},
		&models.CollectorUser{},
	); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	redemptionService := services.NewRedemptionService(db)
	eventService := services.NewEventService(db)
	seasonService := services.NewSeasonService(db)
	rankingService := services.NewRankingService(db)
	collectorService := services.NewCollectorService(db)

	// --- Profile mirror sync configuration ---
	profileSyncURL := os.Getenv("PROFILE_SYNC_URL")
	if profileSyncURL == "" {
		logger.Fatal("PROFILE_SYNC_URL environment variable not set")
	}
	cardServiceToken := os.Getenv("CARD_SERVICE_TOKEN")
	if cardServiceToken == "" {
		logger.Fatal("CARD_SERVICE_TOKEN environment variable not set")
	}

	syncWorker := workers.NewCollectorSyncWorker(db, profileSyncURL, "/api/v1/public/profiles", cardServiceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	syncWorker.Start(ctx)

	eventService.StartPublishScheduler()

	// ✅ Setup routes: enforced Gateway auth + consistent /s/ prefix.
	// Redemption first: its SSE route must be matched before the
	// header-authed groups the other areas register.
	handlers.SetupRedemptionRoutes(app, redemptionService)
	handlers.SetupCollectionRoutes(app, redemptionService)
	handlers.SetupEventRoutes(app, eventService)
	handlers.SetupSeasonRoutes(app, seasonService)
	handlers.SetupRankingRoutes(app, rankingService)
	handlers.SetupCollectorRoutes(app, collectorService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			logger.Error("server error", zap.Error(err))
		}
	}()

	logger.Info("✅ Server running", zap.String("addr", "http://localhost:"+port))
	logger.Info("✅ Collector sync worker running (every 1m)")
	logger.Info("✅ Event publish scheduler running (every 1m)")
	logger.Info("✅ GatewayAuthMiddleware enforced globally, all requests must come from Gateway")
	logger.Info("✅ CORS configured", zap.String("origins", allowedOriginsString))

	<-ctx.Done()
	logger.Info("Shutting down server...")
	_ = app.Shutdown()
}
