package app

import (
	"github.com/looplearn/looplearn-backend/internal/handlers"
	"github.com/looplearn/looplearn-backend/internal/logger"
)

type Handlers struct {
	Healthcheck    *handlers.HealthcheckHandler
	Auth           *handlers.AuthHandler
	Activity       *handlers.ActivityHandler
	Analysis       *handlers.AnalysisHandler
	Interests      *handlers.InterestsHandler
	Recommendation *handlers.RecommendationHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Healthcheck:    handlers.NewHealthcheckHandler(log),
		Auth:           handlers.NewAuthHandler(log, services.Auth),
		Activity:       handlers.NewActivityHandler(log, services.Activity),
		Analysis:       handlers.NewAnalysisHandler(log, services.ContentAnalysis),
		Interests:      handlers.NewInterestsHandler(log, services.Interest),
		Recommendation: handlers.NewRecommendationHandler(log, services.Recommendation),
	}
}
