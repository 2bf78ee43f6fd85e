package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Content types the recommendation pipeline knows about.
const (
	ContentTypeResource     = "resource"
	ContentTypePost         = "post"
	ContentTypeLearningPath = "learning_path"
)

type Resource struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AuthorID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"author_id"`
	Author      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:AuthorID;references:ID" json:"author,omitempty"`
	Title       string         `gorm:"not null;column:title" json:"title"`
	Description string         `gorm:"column:description" json:"description"`
	URL         string         `gorm:"column:url" json:"url"`
	Category    string         `gorm:"column:category;index" json:"category"`
	Tags        datatypes.JSON `gorm:"type:jsonb;column:tags" json:"tags"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Resource) TableName() string { return "resource" }

type Post struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AuthorID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"author_id"`
	Author    *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:AuthorID;references:ID" json:"author,omitempty"`
	Title     string         `gorm:"not null;column:title" json:"title"`
	Body      string         `gorm:"column:body" json:"body"`
	Category  string         `gorm:"column:category;index" json:"category"`
	Tags      datatypes.JSON `gorm:"type:jsonb;column:tags" json:"tags"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Post) TableName() string { return "post" }

type LearningPath struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AuthorID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"author_id"`
	Author      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:AuthorID;references:ID" json:"author,omitempty"`
	Title       string         `gorm:"not null;column:title" json:"title"`
	Description string         `gorm:"column:description" json:"description"`
	Difficulty  string         `gorm:"column:difficulty" json:"difficulty"`
	Category    string         `gorm:"column:category;index" json:"category"`
	Tags        datatypes.JSON `gorm:"type:jsonb;column:tags" json:"tags"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LearningPath) TableName() string { return "learning_path" }

type Bookmark struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_bookmark_user_content,unique" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ContentID   uuid.UUID `gorm:"type:uuid;not null;index:idx_bookmark_user_content,unique" json:"content_id"`
	ContentType string    `gorm:"not null;column:content_type" json:"content_type"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Bookmark) TableName() string { return "bookmark" }
