package repos

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/studyloop-backend/internal/dbctx"
	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/types"
)

type ProgressRepo interface {
	Create(dbc dbctx.Context, progress *types.TopicProgress) (*types.TopicProgress, error)
	GetByStudentAndTopic(dbc dbctx.Context, studentID, topicID uuid.UUID) (*types.TopicProgress, error)
	CountCompleted(dbc dbctx.Context, studentID uuid.UUID, topicIDs []uuid.UUID) (int64, error)
	CompletedCountsByTopic(dbc dbctx.Context, topicIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return &progressRepo{db: db, log: baseLog.With("repo", "ProgressRepo")}
}

func (r *progressRepo) Create(dbc dbctx.Context, progress *types.TopicProgress) (*types.TopicProgress, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if progress == nil {
		return nil, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(progress).Error; err != nil {
		return nil, err
	}
	return progress, nil
}

func (r *progressRepo) GetByStudentAndTopic(dbc dbctx.Context, studentID, topicID uuid.UUID) (*types.TopicProgress, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil || topicID == uuid.Nil {
		return nil, nil
	}
	var progress types.TopicProgress
	err := transaction.WithContext(dbc.Ctx).
		Where("student_id = ? AND topic_id = ?", studentID, topicID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *progressRepo) CountCompleted(dbc dbctx.Context, studentID uuid.UUID, topicIDs []uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil || len(topicIDs) == 0 {
		return 0, nil
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.TopicProgress{}).
		Where("student_id = ? AND topic_id IN ? AND completed = true", studentID, topicIDs).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CompletedCountsByTopic returns, per topic, how many students have
// completed it.
func (r *progressRepo) CompletedCountsByTopic(dbc dbctx.Context, topicIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := map[uuid.UUID]int64{}
	if len(topicIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		TopicID uuid.UUID
		Count   int64
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.TopicProgress{}).
		Select("topic_id, COUNT(*) AS count").
		Where("topic_id IN ? AND completed = true", topicIDs).
		Group("topic_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.TopicID] = row.Count
	}
	return out, nil
}

func (r *progressRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.TopicProgress{}).
		Where("id = ?", id).
		Updates(updates).Error
}
