package main

import (
	"fmt"
	"os"

	"github.com/lessonloop/scenario-backend/internal/cache"
	"github.com/lessonloop/scenario-backend/internal/config"
	"github.com/lessonloop/scenario-backend/internal/db"
	"github.com/lessonloop/scenario-backend/internal/handlers"
	"github.com/lessonloop/scenario-backend/internal/logger"
	"github.com/lessonloop/scenario-backend/internal/middleware"
	"github.com/lessonloop/scenario-backend/internal/repos"
	"github.com/lessonloop/scenario-backend/internal/server"
	"github.com/lessonloop/scenario-backend/internal/services"
	"github.com/lessonloop/scenario-backend/internal/source"
	"github.com/lessonloop/scenario-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Subjects config
	configPath := utils.GetEnv("SUBJECTS_CONFIG", "subjects.yaml", log)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal("Failed to load subjects config", "path", configPath, "error", err)
	}

	// Cache store
	var store cache.Store
	if os.Getenv("REDIS_ADDR") != "" {
		redisStore, err := cache.NewRedisStore(log)
		if err != nil {
			log.Warn("Redis init failed, using in-memory cache", "error", err)
			store = cache.NewMemoryStore()
		} else {
			store = redisStore
			defer redisStore.Close()
		}
	} else {
		log.Info("REDIS_ADDR unset, using in-memory cache")
		store = cache.NewMemoryStore()
	}

	// DB
	dbService, err := db.NewService(log)
	if err != nil {
		log.Fatal("DB init failed", "error", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Warn("Auto migration failed", "error", err)
	}
	theDB := dbService.DB()

	// Repos
	sessionRepo := repos.NewSessionRecordRepo(theDB, log)
	reviewRepo := repos.NewReviewItemRepo(theDB, log)

	// Services
	resolver := source.NewResolver(cfg, store, log)
	scenarioService := services.NewScenarioService(resolver, sessionRepo, reviewRepo, log)

	// Handlers
	scenarioHandler := handlers.NewScenarioHandler(scenarioService)

	// Middleware (optional)
	var authMiddleware *middleware.AuthMiddleware
	if secret := utils.GetEnv("JWT_SECRET_KEY", "", log); secret != "" {
		authMiddleware = middleware.NewAuthMiddleware(secret, log)
	} else {
		log.Warn("JWT_SECRET_KEY unset, API is unauthenticated")
	}

	// Router
	router := server.NewRouter(server.RouterConfig{
		ScenarioHandler: scenarioHandler,
		AuthMiddleware:  authMiddleware,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server stopped", "error", err)
	}
}
