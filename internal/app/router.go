package app

import (
	"github.com/gin-gonic/gin"

	"github.com/looplearn/looplearn-backend/internal/server"
)

func wireRouter(handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		HealthcheckHandler:    handlers.Healthcheck,
		AuthHandler:           handlers.Auth,
		ActivityHandler:       handlers.Activity,
		AnalysisHandler:       handlers.Analysis,
		InterestsHandler:      handlers.Interests,
		RecommendationHandler: handlers.Recommendation,
		AuthMiddleware:        middleware.Auth,
	})
}
