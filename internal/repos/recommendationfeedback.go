package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/types"
)

type RecommendationFeedbackRepo interface {
	Create(ctx context.Context, tx *gorm.DB, feedback []*types.RecommendationFeedback) ([]*types.RecommendationFeedback, error)
	GetByRecommendationID(ctx context.Context, tx *gorm.DB, recommendationID uuid.UUID) ([]*types.RecommendationFeedback, error)
}

type recommendationFeedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationFeedbackRepo {
	repoLog := baseLog.With("repo", "RecommendationFeedbackRepo")
	return &recommendationFeedbackRepo{db: db, log: repoLog}
}

func (r *recommendationFeedbackRepo) Create(ctx context.Context, tx *gorm.DB, feedback []*types.RecommendationFeedback) ([]*types.RecommendationFeedback, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(feedback) == 0 {
		return []*types.RecommendationFeedback{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&feedback).Error; err != nil {
		return nil, err
	}
	return feedback, nil
}

func (r *recommendationFeedbackRepo) GetByRecommendationID(ctx context.Context, tx *gorm.DB, recommendationID uuid.UUID) ([]*types.RecommendationFeedback, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.RecommendationFeedback
	if recommendationID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("recommendation_id = ?", recommendationID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
