package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/looplearn/looplearn-backend/internal/handlers"
	"github.com/looplearn/looplearn-backend/internal/middleware"
)

type RouterConfig struct {
	HealthcheckHandler    *handlers.HealthcheckHandler
	AuthHandler           *handlers.AuthHandler
	ActivityHandler       *handlers.ActivityHandler
	AnalysisHandler       *handlers.AnalysisHandler
	InterestsHandler      *handlers.InterestsHandler
	RecommendationHandler *handlers.RecommendationHandler
	AuthMiddleware        *middleware.AuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	router.Use(otelgin.Middleware("looplearn"))
	router.Use(middleware.Metrics())

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", cfg.HealthcheckHandler.Healthcheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	router.POST("/refresh", cfg.AuthHandler.Refresh)
	router.POST("/logout", cfg.AuthHandler.Logout)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	// Activity
	api.POST("/activity", cfg.ActivityHandler.Track)
	// Content analysis
	api.POST("/ai/analyze", cfg.AnalysisHandler.Analyze)
	api.POST("/ai/analyze/batch", cfg.AnalysisHandler.AnalyzeBatch)
	api.GET("/ai/similar/:contentID", cfg.AnalysisHandler.FindSimilar)
	api.POST("/ai/keywords", cfg.AnalysisHandler.ExtractKeywords)
	// Interests
	api.GET("/ai/interests", cfg.InterestsHandler.Get)
	api.POST("/ai/interests/refresh", cfg.InterestsHandler.Refresh)
	api.GET("/ai/segment", cfg.InterestsHandler.Segment)
	// Recommendations
	api.POST("/ai/recommend", cfg.RecommendationHandler.Generate)
	api.PUT("/ai/recommend", cfg.RecommendationHandler.Feedback)

	return router
}
