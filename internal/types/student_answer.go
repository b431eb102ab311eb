package types

import (
	"time"

	"github.com/google/uuid"
)

// StudentAnswer snapshots the question text, correct answer and CO tag at
// submission time so later question edits cannot rewrite history. Exactly one
// row exists per (attempt, question); resubmission within the window replaces
// the attempt's rows wholesale.
type StudentAnswer struct {
	ID        uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AttemptID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_question" json:"attempt_id"`
	Attempt   *QuizAttempt `gorm:"constraint:OnDelete:CASCADE;foreignKey:AttemptID;references:ID" json:"attempt,omitempty"`

	QuestionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_question" json:"question_id"`

	QuestionText  string `gorm:"column:question_text;not null" json:"question_text"`
	StudentAnswer string `gorm:"column:student_answer" json:"student_answer"`
	CorrectAnswer string `gorm:"column:correct_answer;not null" json:"correct_answer"`
	COTag         string `gorm:"column:co_tag;not null;index" json:"co_tag"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (StudentAnswer) TableName() string { return "student_answer" }
