package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// ContentAnalysis holds the LLM-derived view of one piece of content.
// One row per content_id, overwritten on re-analysis. The embedding
// column mirrors the vector held by the vector index; embed_model and
// embed_dim stamp the model that produced it so vectors from different
// models are never compared.
type ContentAnalysis struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ContentID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"content_id"`
	ContentType     string         `gorm:"column:content_type;not null;index" json:"content_type"`
	Topics          datatypes.JSON `gorm:"type:jsonb;column:topics" json:"topics"`
	TargetAudience  string         `gorm:"column:target_audience" json:"target_audience"`
	DifficultyLevel string         `gorm:"column:difficulty_level" json:"difficulty_level"`
	KeyTakeaways    datatypes.JSON `gorm:"type:jsonb;column:key_takeaways" json:"key_takeaways"`
	Summary         string         `gorm:"column:summary" json:"summary"`
	Embedding       datatypes.JSON `gorm:"type:jsonb;column:embedding" json:"-"`
	EmbedModel      string         `gorm:"column:embed_model;not null" json:"embed_model"`
	EmbedDim        int            `gorm:"column:embed_dim;not null" json:"embed_dim"`
	Flagged         bool           `gorm:"column:flagged;not null;default:false" json:"flagged"`
	FlagCategories  datatypes.JSON `gorm:"type:jsonb;column:flag_categories" json:"flag_categories,omitempty"`
	AnalyzedAt      time.Time      `gorm:"not null;column:analyzed_at" json:"analyzed_at"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (ContentAnalysis) TableName() string { return "content_analysis" }
