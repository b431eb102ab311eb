package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Topic struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_course_topic_no;uniqueIndex:idx_course_file_name" json:"course_id"`
	Course   *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`

	TopicNo  int    `gorm:"column:topic_no;not null;uniqueIndex:idx_course_topic_no" json:"topic_no"`
	Title    string `gorm:"column:title;not null" json:"title"`
	Subtitle string `gorm:"column:subtitle" json:"subtitle"`

	FileName   string    `gorm:"column:file_name;not null;uniqueIndex:idx_course_file_name" json:"file_name"`
	FileHash   string    `gorm:"column:file_hash;index" json:"file_hash"`
	UploadedBy uuid.UUID `gorm:"type:uuid;not null;index" json:"uploaded_by"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Topic) TableName() string { return "topic" }
