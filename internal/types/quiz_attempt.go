package types

import (
	"time"

	"github.com/google/uuid"
)

type QuizAttempt struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index:idx_attempt_student_topic" json:"student_id"`
	Student   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:StudentID;references:ID" json:"student,omitempty"`
	TopicID   uuid.UUID `gorm:"type:uuid;not null;index:idx_attempt_student_topic" json:"topic_id"`
	Topic     *Topic    `gorm:"constraint:OnDelete:CASCADE;foreignKey:TopicID;references:ID" json:"topic,omitempty"`

	AttemptNumber  int       `gorm:"column:attempt_number;not null;default:1" json:"attempt_number"`
	StartTime      time.Time `gorm:"column:start_time;not null;default:now()" json:"start_time"`
	EndTime        time.Time `gorm:"column:end_time;not null" json:"end_time"`
	Submitted      bool      `gorm:"column:submitted;not null;default:false" json:"submitted"`
	Score          int       `gorm:"column:score;not null;default:0" json:"score"`
	TotalQuestions int       `gorm:"column:total_questions;not null;default:0" json:"total_questions"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (QuizAttempt) TableName() string { return "quiz_attempt" }

// SetEndTime fixes the submission deadline relative to the start time.
func (a *QuizAttempt) SetEndTime(d time.Duration) {
	if a.StartTime.IsZero() {
		a.StartTime = time.Now().UTC()
	}
	a.EndTime = a.StartTime.Add(d)
}

// Expired reports whether now is past the submission deadline.
func (a *QuizAttempt) Expired(now time.Time) bool {
	return now.After(a.EndTime)
}
