package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/studyloop-backend/internal/dbctx"
	"github.com/studyloop/studyloop-backend/internal/fingerprint"
	"github.com/studyloop/studyloop-backend/internal/ingest"
	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/repos"
	"github.com/studyloop/studyloop-backend/internal/requestdata"
	"github.com/studyloop/studyloop-backend/internal/semindex"
	"github.com/studyloop/studyloop-backend/internal/types"
	"github.com/studyloop/studyloop-backend/internal/utils"
)

type UploadTopicInput struct {
	CourseID uuid.UUID
	TopicNo  int
	Title    string
	Subtitle string
	FileName string
	Raw      []byte
}

type UploadTopicResult struct {
	Topic       *types.Topic
	Fingerprint string
	IndexStatus semindex.Status
	ChunkCount  int
}

// IndexingService turns an uploaded document into a topic backed by a
// content-addressed semantic index. Byte-identical uploads share one
// Document row and one persisted index.
type ReindexResult struct {
	Fingerprint string
	IndexStatus semindex.Status
	ChunkCount  int
}

type IndexingService interface {
	UploadTopic(ctx context.Context, actor requestdata.Actor, in UploadTopicInput) (*UploadTopicResult, error)
	ReindexTopic(ctx context.Context, actor requestdata.Actor, topicID uuid.UUID, raw []byte) (*ReindexResult, error)
	DeleteTopic(ctx context.Context, actor requestdata.Actor, topicID uuid.UUID) error
}

type indexingService struct {
	log       *logger.Logger
	db        *gorm.DB
	courses   repos.CourseRepo
	topics    repos.TopicRepo
	documents repos.DocumentRepo
	questions repos.QuestionRepo
	index     semindex.Service

	chunkSize int
	overlap   int
}

func NewIndexingService(
	log *logger.Logger,
	db *gorm.DB,
	courses repos.CourseRepo,
	topics repos.TopicRepo,
	documents repos.DocumentRepo,
	questions repos.QuestionRepo,
	index semindex.Service,
) (IndexingService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if index == nil {
		return nil, fmt.Errorf("semantic index service required")
	}
	return &indexingService{
		log:       log.With("service", "IndexingService"),
		db:        db,
		courses:   courses,
		topics:    topics,
		documents: documents,
		questions: questions,
		index:     index,
		chunkSize: utils.GetEnvAsInt("CHUNK_SIZE", ingest.DefaultChunkSize, log),
		overlap:   utils.GetEnvAsInt("CHUNK_OVERLAP", ingest.DefaultOverlap, log),
	}, nil
}

func (s *indexingService) UploadTopic(ctx context.Context, actor requestdata.Actor, in UploadTopicInput) (*UploadTopicResult, error) {
	if actor.Role != types.RoleFaculty {
		return nil, fmt.Errorf("%w: topic upload requires faculty", ErrForbidden)
	}
	in.Title = strings.TrimSpace(in.Title)
	in.FileName = strings.TrimSpace(in.FileName)
	if in.Title == "" || in.FileName == "" || len(in.Raw) == 0 {
		return nil, fmt.Errorf("%w: title, file name and file content are required", ErrInvalidInput)
	}

	dbc := dbctx.Context{Ctx: ctx}

	course, err := s.courses.GetByID(dbc, in.CourseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}

	count, err := s.topics.CountByCourse(dbc, course.ID)
	if err != nil {
		return nil, err
	}
	if count >= int64(course.MaxTopics) {
		return nil, fmt.Errorf("%w: course holds %d of %d topics", ErrTopicLimit, count, course.MaxTopics)
	}

	if exists, err := s.topics.ExistsByCourseAndTopicNo(dbc, course.ID, in.TopicNo); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("%w: topic number %d already used", ErrDuplicateTopic, in.TopicNo)
	}
	if exists, err := s.topics.ExistsByCourseAndFileName(dbc, course.ID, in.FileName); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("%w: file %s already uploaded", ErrDuplicateTopic, in.FileName)
	}

	fp := fingerprint.Bytes(in.Raw)

	doc, err := s.documents.GetByFingerprint(dbc, fp)
	if err != nil {
		return nil, err
	}
	docID := uuid.New()
	if doc != nil {
		docID = doc.ID
	}

	chunks, err := ingest.SplitDocument(in.Raw, s.chunkSize, s.overlap, docID)
	if err != nil {
		return nil, err
	}

	// The index service loads before it builds, so passing chunks on a dedup
	// hit costs nothing and self-heals a missing index file.
	ix, status, err := s.index.GetOrBuild(ctx, fp, chunks)
	if err != nil {
		return nil, err
	}

	result := &UploadTopicResult{
		Fingerprint: fp,
		IndexStatus: status,
		ChunkCount:  len(ix.Entries),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}

		if doc == nil {
			doc = &types.Document{
				ID:          docID,
				Fingerprint: fp,
				DisplayName: in.FileName,
				IndexPath:   fp,
				OwnerUserID: actor.UserID,
			}
			if _, err := s.documents.Create(txc, doc); err != nil {
				return err
			}
		}

		topic := &types.Topic{
			ID:         uuid.New(),
			CourseID:   course.ID,
			TopicNo:    in.TopicNo,
			Title:      in.Title,
			Subtitle:   strings.TrimSpace(in.Subtitle),
			FileName:   in.FileName,
			FileHash:   fp,
			UploadedBy: actor.UserID,
		}
		if _, err := s.topics.Create(txc, topic); err != nil {
			return err
		}
		result.Topic = topic
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Topic uploaded and indexed",
		"course_id", course.ID,
		"topic_no", in.TopicNo,
		"fingerprint", fp,
		"index_status", string(status),
		"chunks", result.ChunkCount,
	)
	return result, nil
}

// ReindexTopic rebuilds a topic's index from a re-supplied copy of its
// document. The upload must be byte-identical to the original: a different
// fingerprint is a different document and belongs to a new topic.
func (s *indexingService) ReindexTopic(ctx context.Context, actor requestdata.Actor, topicID uuid.UUID, raw []byte) (*ReindexResult, error) {
	if actor.Role != types.RoleFaculty {
		return nil, fmt.Errorf("%w: reindex requires faculty", ErrForbidden)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: file content is required", ErrInvalidInput)
	}

	dbc := dbctx.Context{Ctx: ctx}
	topic, err := s.topics.GetByID(dbc, topicID)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, ErrTopicNotFound
	}

	fp := fingerprint.Bytes(raw)
	if fp != topic.FileHash {
		return nil, fmt.Errorf("%w: uploaded content does not match topic document", ErrInvalidInput)
	}

	chunks, err := ingest.SplitDocument(raw, s.chunkSize, s.overlap, topic.ID)
	if err != nil {
		return nil, err
	}
	if err := s.index.Drop(fp); err != nil {
		return nil, err
	}
	ix, status, err := s.index.GetOrBuild(ctx, fp, chunks)
	if err != nil {
		return nil, err
	}

	s.log.Info("Topic reindexed", "topic_id", topic.ID, "fingerprint", fp, "chunks", len(ix.Entries))
	return &ReindexResult{
		Fingerprint: fp,
		IndexStatus: status,
		ChunkCount:  len(ix.Entries),
	}, nil
}

// DeleteTopic removes the topic, its questions, and any index artifacts no
// other topic still references.
func (s *indexingService) DeleteTopic(ctx context.Context, actor requestdata.Actor, topicID uuid.UUID) error {
	if actor.Role != types.RoleFaculty {
		return fmt.Errorf("%w: topic deletion requires faculty", ErrForbidden)
	}

	dbc := dbctx.Context{Ctx: ctx}
	topic, err := s.topics.GetByID(dbc, topicID)
	if err != nil {
		return err
	}
	if topic == nil {
		return ErrTopicNotFound
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.questions.SoftDeleteByTopic(txc, topic.ID); err != nil {
			return err
		}
		return s.topics.Delete(txc, topic.ID)
	})
	if err != nil {
		return err
	}

	// Index and document cleanup happens after commit: the fingerprint may
	// still back other topics, and a leaked index file is harmless while a
	// dangling topic row is not.
	remaining, err := s.topics.CountByFileHash(dbc, topic.FileHash)
	if err != nil {
		return err
	}
	if remaining == 0 {
		if err := s.index.Drop(topic.FileHash); err != nil {
			s.log.Warn("Failed to drop index after topic delete", "fingerprint", topic.FileHash, "error", err.Error())
		}
		if err := s.documents.DeleteByFingerprint(dbc, topic.FileHash); err != nil {
			return err
		}
	}

	s.log.Info("Topic deleted",
		"topic_id", topic.ID,
		"course_id", topic.CourseID,
		"fingerprint", topic.FileHash,
		"document_removed", remaining == 0,
	)
	return nil
}
