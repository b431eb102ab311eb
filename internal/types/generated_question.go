package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GeneratedQuestion is one reviewed MCQ persisted for a topic. Options holds
// the JSON array of exactly four answer strings; CorrectAnswer always equals
// one of them (case-insensitive), enforced before persistence.
type GeneratedQuestion struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TopicID uuid.UUID `gorm:"type:uuid;not null;index" json:"topic_id"`
	Topic   *Topic    `gorm:"constraint:OnDelete:CASCADE;foreignKey:TopicID;references:ID" json:"topic,omitempty"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	QuestionText  string         `gorm:"column:question_text;not null" json:"question_text"`
	Options       datatypes.JSON `gorm:"type:jsonb;column:options;not null" json:"options"`
	CorrectAnswer string         `gorm:"column:correct_answer;not null" json:"correct_answer"`
	COTag         string         `gorm:"column:co_tag;not null;index" json:"co_tag"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (GeneratedQuestion) TableName() string { return "generated_question" }
