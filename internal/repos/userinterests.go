package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/types"
)

type UserInterestsRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, interests *types.UserInterests) (*types.UserInterests, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserInterests, error)
}

type userInterestsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserInterestsRepo(db *gorm.DB, baseLog *logger.Logger) UserInterestsRepo {
	repoLog := baseLog.With("repo", "UserInterestsRepo")
	return &userInterestsRepo{db: db, log: repoLog}
}

func (r *userInterestsRepo) Upsert(ctx context.Context, tx *gorm.DB, interests *types.UserInterests) (*types.UserInterests, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if interests == nil {
		return nil, nil
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"primary_interests", "secondary_interests", "skills",
				"content_preferences", "learning_goals", "updated_at",
			}),
		}).
		Create(interests).Error; err != nil {
		return nil, err
	}
	return interests, nil
}

func (r *userInterestsRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserInterests, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	var result types.UserInterests
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
