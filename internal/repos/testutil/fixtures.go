package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studyloop/studyloop-backend/internal/types"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email, role string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Email:    email,
		FullName: "Test User",
		Role:     role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, instructorID uuid.UUID) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:           uuid.New(),
		Title:        "Introduction to Computing",
		InstructorID: instructorID,
		TopicsTarget: 10,
		MaxTopics:    10,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedTopic(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID, uploadedBy uuid.UUID, topicNo int) *types.Topic {
	tb.Helper()
	t := &types.Topic{
		ID:         uuid.New(),
		CourseID:   courseID,
		TopicNo:    topicNo,
		Title:      "topic",
		FileName:   uuid.NewString() + ".pdf",
		FileHash:   uuid.NewString(),
		UploadedBy: uploadedBy,
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed topic: %v", err)
	}
	return t
}

func SeedQuestion(tb testing.TB, ctx context.Context, tx *gorm.DB, topicID, userID uuid.UUID, coTag string) *types.GeneratedQuestion {
	tb.Helper()
	q := &types.GeneratedQuestion{
		ID:            uuid.New(),
		TopicID:       topicID,
		UserID:        userID,
		QuestionText:  "What is a register?",
		Options:       datatypes.JSON([]byte(`["a","b","c","d"]`)),
		CorrectAnswer: "a",
		COTag:         coTag,
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	return q
}

func SeedAttempt(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID, topicID uuid.UUID) *types.QuizAttempt {
	tb.Helper()
	a := &types.QuizAttempt{
		ID:            uuid.New(),
		StudentID:     studentID,
		TopicID:       topicID,
		AttemptNumber: 1,
		StartTime:     time.Now().UTC(),
		EndTime:       time.Now().UTC().Add(15 * time.Minute),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed attempt: %v", err)
	}
	return a
}
