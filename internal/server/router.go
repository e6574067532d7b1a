package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/lessonloop/scenario-backend/internal/handlers"
	"github.com/lessonloop/scenario-backend/internal/middleware"
)

type RouterConfig struct {
	ScenarioHandler *handlers.ScenarioHandler
	// AuthMiddleware is optional; nil leaves the API open.
	AuthMiddleware *middleware.AuthMiddleware
	AllowOrigins   []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		api.POST("/sessions", cfg.ScenarioHandler.StartSession)
		api.GET("/sessions/:id", cfg.ScenarioHandler.GetSession)
		api.POST("/sessions/:id/advance", cfg.ScenarioHandler.AdvanceSession)
		api.POST("/sessions/:id/answer", cfg.ScenarioHandler.AnswerSession)
		api.DELETE("/sessions/:id", cfg.ScenarioHandler.EndSession)
	}

	return router
}
