package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/studyloop-backend/internal/dbctx"
	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/types"
)

type COPerformanceRepo interface {
	Create(dbc dbctx.Context, rows []*types.COPerformance) ([]*types.COPerformance, error)
	ListByStudentAndTopics(dbc dbctx.Context, studentID uuid.UUID, topicIDs []uuid.UUID) ([]*types.COPerformance, error)
	ListByTopics(dbc dbctx.Context, topicIDs []uuid.UUID) ([]*types.COPerformance, error)
	ListByAttempt(dbc dbctx.Context, attemptID uuid.UUID) ([]*types.COPerformance, error)
	DeleteByAttempt(dbc dbctx.Context, attemptID uuid.UUID) error
}

type coPerformanceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCOPerformanceRepo(db *gorm.DB, baseLog *logger.Logger) COPerformanceRepo {
	return &coPerformanceRepo{db: db, log: baseLog.With("repo", "COPerformanceRepo")}
}

func (r *coPerformanceRepo) Create(dbc dbctx.Context, rows []*types.COPerformance) ([]*types.COPerformance, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.COPerformance{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *coPerformanceRepo) ListByStudentAndTopics(dbc dbctx.Context, studentID uuid.UUID, topicIDs []uuid.UUID) ([]*types.COPerformance, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.COPerformance
	if studentID == uuid.Nil || len(topicIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("student_id = ? AND topic_id IN ?", studentID, topicIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *coPerformanceRepo) ListByTopics(dbc dbctx.Context, topicIDs []uuid.UUID) ([]*types.COPerformance, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.COPerformance
	if len(topicIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("topic_id IN ?", topicIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *coPerformanceRepo) ListByAttempt(dbc dbctx.Context, attemptID uuid.UUID) ([]*types.COPerformance, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.COPerformance
	if attemptID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("attempt_id = ?", attemptID).
		Order("co_tag ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *coPerformanceRepo) DeleteByAttempt(dbc dbctx.Context, attemptID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if attemptID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("attempt_id = ?", attemptID).
		Delete(&types.COPerformance{}).Error
}
