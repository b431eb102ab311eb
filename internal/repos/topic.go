package repos

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/studyloop-backend/internal/dbctx"
	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/types"
)

type TopicRepo interface {
	Create(dbc dbctx.Context, topic *types.Topic) (*types.Topic, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Topic, error)
	ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Topic, error)
	CountByCourse(dbc dbctx.Context, courseID uuid.UUID) (int64, error)
	ExistsByCourseAndTopicNo(dbc dbctx.Context, courseID uuid.UUID, topicNo int) (bool, error)
	ExistsByCourseAndFileName(dbc dbctx.Context, courseID uuid.UUID, fileName string) (bool, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	CountByFileHash(dbc dbctx.Context, fileHash string) (int64, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type topicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return &topicRepo{db: db, log: baseLog.With("repo", "TopicRepo")}
}

func (r *topicRepo) Create(dbc dbctx.Context, topic *types.Topic) (*types.Topic, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if topic == nil {
		return nil, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(topic).Error; err != nil {
		return nil, err
	}
	return topic, nil
}

func (r *topicRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Topic, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var topic types.Topic
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&topic).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *topicRepo) ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Topic, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Topic
	if courseID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("course_id = ?", courseID).
		Order("topic_no ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *topicRepo) CountByCourse(dbc dbctx.Context, courseID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if courseID == uuid.Nil {
		return 0, nil
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Topic{}).
		Where("course_id = ?", courseID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *topicRepo) ExistsByCourseAndTopicNo(dbc dbctx.Context, courseID uuid.UUID, topicNo int) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if courseID == uuid.Nil {
		return false, nil
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Topic{}).
		Where("course_id = ? AND topic_no = ?", courseID, topicNo).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *topicRepo) ExistsByCourseAndFileName(dbc dbctx.Context, courseID uuid.UUID, fileName string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if courseID == uuid.Nil || fileName == "" {
		return false, nil
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Topic{}).
		Where("course_id = ? AND file_name = ?", courseID, fileName).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *topicRepo) CountByFileHash(dbc dbctx.Context, fileHash string) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if fileHash == "" {
		return 0, nil
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Topic{}).
		Where("file_hash = ?", fileHash).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *topicRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Topic{}).Error
}

func (r *topicRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Topic{}).
		Where("id = ?", id).
		Updates(updates).Error
}
