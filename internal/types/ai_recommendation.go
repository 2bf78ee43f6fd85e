package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	RecTypeResource     = "resource"
	RecTypeLearningPath = "learning_path"
	RecTypePost         = "post"
	RecTypeMixed        = "mixed"
)

// AIRecommendation is upserted by (user_id, rec_type, item_id); rows
// older than the retention window are swept during generation.
type AIRecommendation struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_rec_user_type_item,unique" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	RecType   string    `gorm:"column:rec_type;not null;index:idx_rec_user_type_item,unique" json:"rec_type"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index:idx_rec_user_type_item,unique" json:"item_id"`
	Score     float64   `gorm:"column:score;not null" json:"score"`
	Reason    string    `gorm:"column:reason" json:"reason"`
	IsClicked bool      `gorm:"column:is_clicked;not null;default:false" json:"is_clicked"`
	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AIRecommendation) TableName() string { return "ai_recommendation" }

const (
	FeedbackHelpful    = "helpful"
	FeedbackNotHelpful = "not_helpful"
	FeedbackSave       = "save"
	FeedbackDismiss    = "dismiss"
)

type RecommendationFeedback struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RecommendationID uuid.UUID `gorm:"type:uuid;not null;index" json:"recommendation_id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	FeedbackType     string    `gorm:"column:feedback_type;not null" json:"feedback_type"`
	FeedbackText     string    `gorm:"column:feedback_text" json:"feedback_text"`
	CreatedAt        time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (RecommendationFeedback) TableName() string { return "recommendation_feedback" }
