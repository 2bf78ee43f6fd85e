package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Activity types accepted by the ingest path.
const (
	ActivityView     = "view"
	ActivityLike     = "like"
	ActivityComment  = "comment"
	ActivityShare    = "share"
	ActivityBookmark = "bookmark"
	ActivityCreate   = "create"
)

// UserActivity is append-only: rows are never mutated after insert,
// only aggregated by readers.
type UserActivity struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User            *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ActivityType    string         `gorm:"column:activity_type;not null;index" json:"activity_type"`
	ContentID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"content_id"`
	ContentType     string         `gorm:"column:content_type;not null" json:"content_type"`
	DurationSeconds int            `gorm:"column:duration_seconds" json:"duration_seconds,omitempty"`
	Metadata        datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata"`
	CreatedAt       time.Time      `gorm:"not null;default:now();index" json:"created_at"`
}

func (UserActivity) TableName() string { return "user_activity" }
