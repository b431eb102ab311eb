package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/studyloop-backend/internal/dbctx"
	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/types"
)

type QuestionRepo interface {
	Create(dbc dbctx.Context, questions []*types.GeneratedQuestion) ([]*types.GeneratedQuestion, error)
	ListByTopic(dbc dbctx.Context, topicID uuid.UUID) ([]*types.GeneratedQuestion, error)
	CountByTopic(dbc dbctx.Context, topicID uuid.UUID) (int64, error)
	SoftDeleteByTopic(dbc dbctx.Context, topicID uuid.UUID) error
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{db: db, log: baseLog.With("repo", "QuestionRepo")}
}

func (r *questionRepo) Create(dbc dbctx.Context, questions []*types.GeneratedQuestion) ([]*types.GeneratedQuestion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(questions) == 0 {
		return []*types.GeneratedQuestion{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) ListByTopic(dbc dbctx.Context, topicID uuid.UUID) ([]*types.GeneratedQuestion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.GeneratedQuestion
	if topicID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("topic_id = ?", topicID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questionRepo) CountByTopic(dbc dbctx.Context, topicID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if topicID == uuid.Nil {
		return 0, nil
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.GeneratedQuestion{}).
		Where("topic_id = ?", topicID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *questionRepo) SoftDeleteByTopic(dbc dbctx.Context, topicID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if topicID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("topic_id = ?", topicID).
		Delete(&types.GeneratedQuestion{}).Error
}
