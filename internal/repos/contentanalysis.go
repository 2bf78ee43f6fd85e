package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/types"
)

type ContentAnalysisRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, analysis *types.ContentAnalysis) (*types.ContentAnalysis, error)
	GetByContentID(ctx context.Context, tx *gorm.DB, contentID uuid.UUID) (*types.ContentAnalysis, error)
	GetByContentIDs(ctx context.Context, tx *gorm.DB, contentIDs []uuid.UUID) ([]*types.ContentAnalysis, error)
	DeleteByContentIDs(ctx context.Context, tx *gorm.DB, contentIDs []uuid.UUID) error
}

type contentAnalysisRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentAnalysisRepo(db *gorm.DB, baseLog *logger.Logger) ContentAnalysisRepo {
	repoLog := baseLog.With("repo", "ContentAnalysisRepo")
	return &contentAnalysisRepo{db: db, log: repoLog}
}

// Upsert keys on content_id: re-analysis fully replaces the prior row.
func (r *contentAnalysisRepo) Upsert(ctx context.Context, tx *gorm.DB, analysis *types.ContentAnalysis) (*types.ContentAnalysis, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if analysis == nil {
		return nil, nil
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "content_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"content_type", "topics", "target_audience", "difficulty_level",
				"key_takeaways", "summary", "embedding", "embed_model", "embed_dim",
				"flagged", "flag_categories", "analyzed_at", "updated_at",
			}),
		}).
		Create(analysis).Error; err != nil {
		return nil, err
	}
	return analysis, nil
}

func (r *contentAnalysisRepo) GetByContentID(ctx context.Context, tx *gorm.DB, contentID uuid.UUID) (*types.ContentAnalysis, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if contentID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	var result types.ContentAnalysis
	if err := transaction.WithContext(ctx).
		Where("content_id = ?", contentID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *contentAnalysisRepo) GetByContentIDs(ctx context.Context, tx *gorm.DB, contentIDs []uuid.UUID) ([]*types.ContentAnalysis, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ContentAnalysis
	if len(contentIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("content_id IN ?", contentIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *contentAnalysisRepo) DeleteByContentIDs(ctx context.Context, tx *gorm.DB, contentIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(contentIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("content_id IN ?", contentIDs).
		Delete(&types.ContentAnalysis{}).Error; err != nil {
		return err
	}
	return nil
}
