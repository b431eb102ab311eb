package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/studyloop-backend/internal/dbctx"
	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/types"
)

type AnswerRepo interface {
	Create(dbc dbctx.Context, answers []*types.StudentAnswer) ([]*types.StudentAnswer, error)
	ListByAttempt(dbc dbctx.Context, attemptID uuid.UUID) ([]*types.StudentAnswer, error)
	DeleteByAttempt(dbc dbctx.Context, attemptID uuid.UUID) error
}

type answerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnswerRepo(db *gorm.DB, baseLog *logger.Logger) AnswerRepo {
	return &answerRepo{db: db, log: baseLog.With("repo", "AnswerRepo")}
}

func (r *answerRepo) Create(dbc dbctx.Context, answers []*types.StudentAnswer) ([]*types.StudentAnswer, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(answers) == 0 {
		return []*types.StudentAnswer{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *answerRepo) ListByAttempt(dbc dbctx.Context, attemptID uuid.UUID) ([]*types.StudentAnswer, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.StudentAnswer
	if attemptID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("attempt_id = ?", attemptID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *answerRepo) DeleteByAttempt(dbc dbctx.Context, attemptID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if attemptID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("attempt_id = ?", attemptID).
		Delete(&types.StudentAnswer{}).Error
}
