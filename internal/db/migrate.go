package db

import (
	"gorm.io/gorm"

	"github.com/studyloop/studyloop-backend/internal/types"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Identity
		&types.User{},

		// Course structure + content
		&types.Course{},
		&types.Document{},
		&types.Topic{},
		&types.GeneratedQuestion{},

		// Student activity
		&types.QuizAttempt{},
		&types.StudentAnswer{},
		&types.COPerformance{},
		&types.TopicProgress{},
	)
}
