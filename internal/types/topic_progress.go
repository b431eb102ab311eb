package types

import (
	"time"

	"github.com/google/uuid"
)

// TopicProgress tracks a student's viewed/completed state for one topic.
// Completed flips to true exactly once, at the first successful submission.
type TopicProgress struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_progress_student_topic" json:"student_id"`
	TopicID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_progress_student_topic" json:"topic_id"`
	Topic     *Topic    `gorm:"constraint:OnDelete:CASCADE;foreignKey:TopicID;references:ID" json:"topic,omitempty"`

	Viewed      bool       `gorm:"column:viewed;not null;default:false" json:"viewed"`
	ViewedAt    *time.Time `gorm:"column:viewed_at" json:"viewed_at,omitempty"`
	Completed   bool       `gorm:"column:completed;not null;default:false" json:"completed"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (TopicProgress) TableName() string { return "topic_progress" }
