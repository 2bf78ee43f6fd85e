package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserInterests is a point-in-time snapshot, fully overwritten on each
// recomputation. One row per user. Skills holds a topic->level map;
// ContentPreferences holds {content_types, formats, length_preference}.
type UserInterests struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID             uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User               *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	PrimaryInterests   datatypes.JSON `gorm:"type:jsonb;column:primary_interests" json:"primary_interests"`
	SecondaryInterests datatypes.JSON `gorm:"type:jsonb;column:secondary_interests" json:"secondary_interests"`
	Skills             datatypes.JSON `gorm:"type:jsonb;column:skills" json:"skills"`
	ContentPreferences datatypes.JSON `gorm:"type:jsonb;column:content_preferences" json:"content_preferences"`
	LearningGoals      datatypes.JSON `gorm:"type:jsonb;column:learning_goals" json:"learning_goals"`
	UpdatedAt          time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	CreatedAt          time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (UserInterests) TableName() string { return "user_interests" }
