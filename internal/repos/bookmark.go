package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/types"
)

type BookmarkRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, bookmark *types.Bookmark) (*types.Bookmark, error)
	DeleteByUserAndContent(ctx context.Context, tx *gorm.DB, userID, contentID uuid.UUID) error
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Bookmark, error)
}

type bookmarkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookmarkRepo(db *gorm.DB, baseLog *logger.Logger) BookmarkRepo {
	repoLog := baseLog.With("repo", "BookmarkRepo")
	return &bookmarkRepo{db: db, log: repoLog}
}

func (r *bookmarkRepo) Upsert(ctx context.Context, tx *gorm.DB, bookmark *types.Bookmark) (*types.Bookmark, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if bookmark == nil {
		return nil, nil
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "content_id"}},
			DoNothing: true,
		}).
		Create(bookmark).Error; err != nil {
		return nil, err
	}
	return bookmark, nil
}

func (r *bookmarkRepo) DeleteByUserAndContent(ctx context.Context, tx *gorm.DB, userID, contentID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil || contentID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		Delete(&types.Bookmark{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *bookmarkRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Bookmark, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Bookmark
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
