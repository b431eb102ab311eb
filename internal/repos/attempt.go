package repos

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/studyloop-backend/internal/dbctx"
	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/types"
)

type AttemptRepo interface {
	Create(dbc dbctx.Context, attempt *types.QuizAttempt) (*types.QuizAttempt, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.QuizAttempt, error)
	ListByStudentAndTopic(dbc dbctx.Context, studentID, topicID uuid.UUID) ([]*types.QuizAttempt, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type attemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	return &attemptRepo{db: db, log: baseLog.With("repo", "AttemptRepo")}
}

func (r *attemptRepo) Create(dbc dbctx.Context, attempt *types.QuizAttempt) (*types.QuizAttempt, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if attempt == nil {
		return nil, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

func (r *attemptRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.QuizAttempt, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var attempt types.QuizAttempt
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepo) ListByStudentAndTopic(dbc dbctx.Context, studentID, topicID uuid.UUID) ([]*types.QuizAttempt, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.QuizAttempt
	if studentID == uuid.Nil || topicID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("student_id = ? AND topic_id = ?", studentID, topicID).
		Order("attempt_number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attemptRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.QuizAttempt{}).
		Where("id = ?", id).
		Updates(updates).Error
}
