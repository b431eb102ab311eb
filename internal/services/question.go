package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studyloop/studyloop-backend/internal/cache"
	"github.com/studyloop/studyloop-backend/internal/dbctx"
	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/mcq"
	"github.com/studyloop/studyloop-backend/internal/outcomes"
	"github.com/studyloop/studyloop-backend/internal/repos"
	"github.com/studyloop/studyloop-backend/internal/requestdata"
	"github.com/studyloop/studyloop-backend/internal/semindex"
	"github.com/studyloop/studyloop-backend/internal/types"
	"github.com/studyloop/studyloop-backend/internal/utils"
)

type GenerateInput struct {
	TopicID      uuid.UUID
	Topics       []string
	NumQuestions int
	COTags       []string
}

type GenerateResult struct {
	TopicID             uuid.UUID
	TopicTitle          string
	Batch               mcq.Batch
	RetrievedChunkCount int
}

// QuestionService drives the faculty question workflow: retrieval-grounded
// generation into a staging cache, then reviewed persistence.
type QuestionService interface {
	Generate(ctx context.Context, actor requestdata.Actor, in GenerateInput) (*GenerateResult, error)
	Save(ctx context.Context, actor requestdata.Actor, topicID uuid.UUID, questions []mcq.Question) (int, error)
	ListByTopic(ctx context.Context, topicID uuid.UUID) ([]*types.GeneratedQuestion, error)
}

type questionService struct {
	log       *logger.Logger
	db        *gorm.DB
	topics    repos.TopicRepo
	questions repos.QuestionRepo
	index     semindex.Service
	generator *mcq.Generator
	pending   cache.PendingBatchCache
	outcomes  outcomes.Set

	topK int
}

func NewQuestionService(
	log *logger.Logger,
	db *gorm.DB,
	topics repos.TopicRepo,
	questions repos.QuestionRepo,
	index semindex.Service,
	generator *mcq.Generator,
	pending cache.PendingBatchCache,
	set outcomes.Set,
) (QuestionService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator required")
	}
	if pending == nil {
		return nil, fmt.Errorf("pending batch cache required")
	}
	if len(set) == 0 {
		set = outcomes.Default()
	}
	return &questionService{
		log:       log.With("service", "QuestionService"),
		db:        db,
		topics:    topics,
		questions: questions,
		index:     index,
		generator: generator,
		pending:   pending,
		outcomes:  set,
		topK:      utils.GetEnvAsInt("RETRIEVAL_TOP_K", 2, log),
	}, nil
}

func (s *questionService) Generate(ctx context.Context, actor requestdata.Actor, in GenerateInput) (*GenerateResult, error) {
	if actor.Role != types.RoleFaculty {
		return nil, fmt.Errorf("%w: question generation requires faculty", ErrForbidden)
	}

	dbc := dbctx.Context{Ctx: ctx}
	topic, err := s.topics.GetByID(dbc, in.TopicID)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, ErrTopicNotFound
	}

	ix, _, err := s.index.GetOrBuild(ctx, topic.FileHash, nil)
	if errors.Is(err, semindex.ErrNoChunks) {
		return nil, fmt.Errorf("%w: upload the topic document first", ErrIndexNotFound)
	}
	if err != nil {
		return nil, err
	}

	// Per-topic retrieval, concatenated in topic order. Duplicate chunks
	// across topics are kept.
	var retrieved []string
	for _, t := range in.Topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		chunks, err := s.index.Retrieve(ctx, ix, t, s.topK)
		if err != nil {
			return nil, err
		}
		retrieved = append(retrieved, chunks...)
	}
	if len(retrieved) == 0 {
		return nil, ErrNoRelevantContent
	}
	merged := strings.Join(retrieved, "\n\n")

	batch, err := s.generator.Generate(ctx, in.Topics, merged, in.NumQuestions, in.COTags)
	if err != nil {
		return nil, err
	}

	if err := s.pending.Put(ctx, actor.UserID, topic.ID, batch); err != nil {
		s.log.Warn("Failed to stage generated batch", "topic_id", topic.ID, "error", err.Error())
	}

	return &GenerateResult{
		TopicID:             topic.ID,
		TopicTitle:          topic.Title,
		Batch:               batch,
		RetrievedChunkCount: len(retrieved),
	}, nil
}

// Save persists a reviewed question batch. With a nil questions slice it
// saves the staged batch from the last Generate call. Items that fail shape
// validation are dropped, never stored partially.
func (s *questionService) Save(ctx context.Context, actor requestdata.Actor, topicID uuid.UUID, questions []mcq.Question) (int, error) {
	if actor.Role != types.RoleFaculty {
		return 0, fmt.Errorf("%w: saving questions requires faculty", ErrForbidden)
	}

	dbc := dbctx.Context{Ctx: ctx}
	topic, err := s.topics.GetByID(dbc, topicID)
	if err != nil {
		return 0, err
	}
	if topic == nil {
		return 0, ErrTopicNotFound
	}

	if len(questions) == 0 {
		batch, err := s.pending.Get(ctx, actor.UserID, topicID)
		if errors.Is(err, cache.ErrNotFound) {
			return 0, ErrNoPendingBatch
		}
		if err != nil {
			return 0, err
		}
		questions = batch.Questions
	}
	if len(questions) == 0 {
		return 0, ErrNoPendingBatch
	}

	rows := make([]*types.GeneratedQuestion, 0, len(questions))
	for i, q := range questions {
		row, ok := s.toRow(topic.ID, actor.UserID, q)
		if !ok {
			s.log.Warn("Dropping malformed question on save", "topic_id", topic.ID, "index", i)
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) > 0 {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txc := dbctx.Context{Ctx: ctx, Tx: tx}
			_, err := s.questions.Create(txc, rows)
			return err
		})
		if err != nil {
			return 0, err
		}
	}

	_ = s.pending.Delete(ctx, actor.UserID, topicID)

	s.log.Info("Saved question batch", "topic_id", topic.ID, "saved", len(rows), "dropped", len(questions)-len(rows))
	return len(rows), nil
}

func (s *questionService) ListByTopic(ctx context.Context, topicID uuid.UUID) ([]*types.GeneratedQuestion, error) {
	return s.questions.ListByTopic(dbctx.Context{Ctx: ctx}, topicID)
}

func (s *questionService) toRow(topicID, userID uuid.UUID, q mcq.Question) (*types.GeneratedQuestion, bool) {
	text := strings.TrimSpace(q.Question)
	if text == "" || len(q.Options) != 4 {
		return nil, false
	}
	matched := ""
	for _, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return nil, false
		}
		if strings.EqualFold(strings.TrimSpace(o), strings.TrimSpace(q.CorrectAnswer)) {
			matched = strings.TrimSpace(o)
		}
	}
	if matched == "" {
		return nil, false
	}
	tag := strings.ToUpper(strings.TrimSpace(q.COTag))
	if !s.outcomes.Has(tag) {
		return nil, false
	}

	opts, err := json.Marshal(q.Options)
	if err != nil {
		return nil, false
	}
	return &types.GeneratedQuestion{
		ID:            uuid.New(),
		TopicID:       topicID,
		UserID:        userID,
		QuestionText:  text,
		Options:       datatypes.JSON(opts),
		CorrectAnswer: matched,
		COTag:         tag,
	}, true
}
