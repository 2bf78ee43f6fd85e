package app

import (
	"gorm.io/gorm"

	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/repos"
)

type Repos struct {
	User                   repos.UserRepo
	UserToken              repos.UserTokenRepo
	UserActivity           repos.UserActivityRepo
	Bookmark               repos.BookmarkRepo
	Resource               repos.ResourceRepo
	Post                   repos.PostRepo
	LearningPath           repos.LearningPathRepo
	ContentAnalysis        repos.ContentAnalysisRepo
	UserInterests          repos.UserInterestsRepo
	AIRecommendation       repos.AIRecommendationRepo
	RecommendationFeedback repos.RecommendationFeedbackRepo
	AICallLog              repos.AICallLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:                   repos.NewUserRepo(db, log),
		UserToken:              repos.NewUserTokenRepo(db, log),
		UserActivity:           repos.NewUserActivityRepo(db, log),
		Bookmark:               repos.NewBookmarkRepo(db, log),
		Resource:               repos.NewResourceRepo(db, log),
		Post:                   repos.NewPostRepo(db, log),
		LearningPath:           repos.NewLearningPathRepo(db, log),
		ContentAnalysis:        repos.NewContentAnalysisRepo(db, log),
		UserInterests:          repos.NewUserInterestsRepo(db, log),
		AIRecommendation:       repos.NewAIRecommendationRepo(db, log),
		RecommendationFeedback: repos.NewRecommendationFeedbackRepo(db, log),
		AICallLog:              repos.NewAICallLogRepo(db, log),
	}
}
