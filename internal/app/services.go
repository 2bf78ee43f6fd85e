package app

import (
	"fmt"

	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/services"
)

type Services struct {
	Auth            services.AuthService
	Recorder        services.AICallRecorder
	Aggregator      services.PreferenceAggregator
	ContentAnalysis services.ContentAnalysisService
	Interest        services.InterestService
	Activity        services.ActivityService
	Recommendation  services.RecommendationService
}

func wireServices(log *logger.Logger, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	authService, err := services.NewAuthService(repos.User, repos.UserToken, log)
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	recorder := services.NewAICallRecorder(repos.AICallLog, log)

	aggregator := services.NewPreferenceAggregator(
		repos.UserActivity,
		repos.Bookmark,
		repos.Resource,
		repos.Post,
		repos.LearningPath,
		log,
	)

	analysisService := services.NewContentAnalysisService(
		clients.OpenAI,
		clients.VectorStore,
		repos.ContentAnalysis,
		recorder,
		log,
	)

	interestService := services.NewInterestService(
		clients.OpenAI,
		aggregator,
		repos.UserInterests,
		repos.UserActivity,
		recorder,
		log,
	)

	activityService := services.NewActivityService(repos.UserActivity, interestService, log)

	recommendationService := services.NewRecommendationService(
		clients.OpenAI,
		clients.VectorStore,
		aggregator,
		repos.AIRecommendation,
		repos.RecommendationFeedback,
		repos.ContentAnalysis,
		clients.RecCache,
		recorder,
		log,
	)

	return Services{
		Auth:            authService,
		Recorder:        recorder,
		Aggregator:      aggregator,
		ContentAnalysis: analysisService,
		Interest:        interestService,
		Activity:        activityService,
		Recommendation:  recommendationService,
	}, nil
}
