package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/types"
)

type AIRecommendationRepo interface {
	UpsertBatch(ctx context.Context, tx *gorm.DB, recs []*types.AIRecommendation) ([]*types.AIRecommendation, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AIRecommendation, error)
	GetByUserAndType(ctx context.Context, tx *gorm.DB, userID uuid.UUID, recType string, limit int) ([]*types.AIRecommendation, error)
	MarkClicked(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type aiRecommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAIRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) AIRecommendationRepo {
	repoLog := baseLog.With("repo", "AIRecommendationRepo")
	return &aiRecommendationRepo{db: db, log: repoLog}
}

// UpsertBatch keys on (user_id, rec_type, item_id): regeneration
// refreshes score and reason instead of piling up duplicate rows.
func (r *aiRecommendationRepo) UpsertBatch(ctx context.Context, tx *gorm.DB, recs []*types.AIRecommendation) ([]*types.AIRecommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(recs) == 0 {
		return []*types.AIRecommendation{}, nil
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "rec_type"}, {Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"score", "reason", "updated_at",
			}),
		}).
		Create(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *aiRecommendationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AIRecommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	var result types.AIRecommendation
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *aiRecommendationRepo) GetByUserAndType(ctx context.Context, tx *gorm.DB, userID uuid.UUID, recType string, limit int) ([]*types.AIRecommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.AIRecommendation
	if userID == uuid.Nil || recType == "" {
		return results, nil
	}
	if limit <= 0 {
		limit = 20
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND rec_type = ?", userID, recType).
		Order("score DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *aiRecommendationRepo) MarkClicked(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.AIRecommendation{}).
		Where("id = ?", id).
		Update("is_clicked", true).Error; err != nil {
		return err
	}
	return nil
}

func (r *aiRecommendationRepo) DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	result := transaction.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Delete(&types.AIRecommendation{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
