package types

import (
	"time"

	"github.com/google/uuid"
)

// COPerformance is the per-attempt breakdown of correctness by course-outcome
// tag. Rows for an attempt are deleted and rebuilt on every submission.
type COPerformance struct {
	ID        uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID uuid.UUID    `gorm:"type:uuid;not null;index" json:"student_id"`
	TopicID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"topic_id"`
	AttemptID uuid.UUID    `gorm:"type:uuid;not null;index" json:"attempt_id"`
	Attempt   *QuizAttempt `gorm:"constraint:OnDelete:CASCADE;foreignKey:AttemptID;references:ID" json:"attempt,omitempty"`

	COTag          string  `gorm:"column:co_tag;not null;index" json:"co_tag"`
	TotalQuestions int     `gorm:"column:total_questions;not null" json:"total_questions"`
	CorrectAnswers int     `gorm:"column:correct_answers;not null" json:"correct_answers"`
	Percentage     float64 `gorm:"column:percentage;not null" json:"percentage"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (COPerformance) TableName() string { return "co_performance" }
